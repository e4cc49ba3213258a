package v4l2

import "testing"

func TestIOCEncoding(t *testing.T) {
	tests := []struct {
		name     string
		opcode   Opcode
		expected uint32
	}{
		{"VIDIOC_QUERYCAP", IOR('V', 0, 104), 0x80685600},
		{"VIDIOC_ENUM_FMT", IOWR('V', 2, 64), 0xc0405602},
		{"VIDIOC_G_FMT 64-bit", IOWR('V', 4, 208), 0xc0d05604},
		{"VIDIOC_S_FMT 32-bit", IOWR('V', 5, 204), 0xc0cc5605},
		{"VIDIOC_ENUM_FRAMESIZES", IOWR('V', 74, 44), 0xc02c564a},
		{"VIDIOC_STREAMON", IOW('V', 18, 4), 0x40045612},
		{"private read i2c", IOWR('V', BaseVidiocPrivate+0, 4), 0xc00456c0},
		{"private write dev", IOWR('V', BaseVidiocPrivate+3, 8), 0xc00856c3},
		{"no argument", IO('V', 1), 0x00005601},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uint32(tt.opcode); got != tt.expected {
				t.Errorf("opcode = 0x%08X, want 0x%08X", got, tt.expected)
			}
		})
	}
}

func TestIOCRoundTrip(t *testing.T) {
	dirs := []Direction{DirNone, DirWrite, DirRead, DirReadWrite}
	sizes := []uintptr{0, 1, 4, 8, 204, 208, 1<<14 - 1}
	for _, dir := range dirs {
		for _, size := range sizes {
			for _, nr := range []uint8{0, 2, BaseVidiocPrivate, 255} {
				op := IOC(dir, 'V', nr, size)
				if op.Dir() != dir || op.Type() != 'V' || op.Nr() != nr || op.Size() != size {
					t.Errorf("IOC(%d, 'V', %d, %d) decoded as dir=%d type=%q nr=%d size=%d",
						dir, nr, size, op.Dir(), op.Type(), op.Nr(), op.Size())
				}
			}
		}
	}
}

func TestIOCSizeTruncated(t *testing.T) {
	op := IOC(DirRead, 'V', 0, 1<<14)
	if op.Size() != 0 {
		t.Errorf("size 1<<14 should wrap to 0, got %d", op.Size())
	}
	if op.Dir() != DirRead {
		t.Errorf("oversized argument must not corrupt direction bits, got %d", op.Dir())
	}
}
