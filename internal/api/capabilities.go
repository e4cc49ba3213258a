package api

// V4L2 capability flags (from linux/videodev2.h) worth showing to a user.
const (
	capVideoCapture       = 0x00000001
	capVideoOutput        = 0x00000002
	capVideoOverlay       = 0x00000004
	capVideoCaptureMplane = 0x00001000
	capVideoOutputMplane  = 0x00002000
	capVideoM2MMplane     = 0x00004000
	capVideoM2M           = 0x00008000
	capExtPixFormat       = 0x00200000
	capMetaCapture        = 0x00800000
	capReadWrite          = 0x01000000
	capStreaming          = 0x04000000
	capIOMC               = 0x20000000
	capDeviceCaps         = 0x80000000
)

var capabilityNames = []struct {
	flag uint32
	name string
}{
	{capVideoCapture, "Video Capture"},
	{capVideoOutput, "Video Output"},
	{capVideoOverlay, "Video Overlay"},
	{capVideoCaptureMplane, "Video Capture Multiplanar"},
	{capVideoOutputMplane, "Video Output Multiplanar"},
	{capVideoM2MMplane, "Video Memory-to-Memory Multiplanar"},
	{capVideoM2M, "Video Memory-to-Memory"},
	{capExtPixFormat, "Extended Pix Format"},
	{capMetaCapture, "Metadata Capture"},
	{capReadWrite, "Read/Write"},
	{capStreaming, "Streaming"},
	{capIOMC, "I/O Media Controller"},
	{capDeviceCaps, "Device Capabilities"},
}

// translateCapabilities converts V4L2 capability flags to readable strings
// in bit order.
func translateCapabilities(caps uint32) []string {
	out := []string{}
	for _, c := range capabilityNames {
		if caps&c.flag != 0 {
			out = append(out, c.name)
		}
	}
	return out
}
