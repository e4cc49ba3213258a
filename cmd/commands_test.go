//go:build linux

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestCommandsReturnErrors(t *testing.T) {
	tests := []struct {
		name    string
		create  func() *cobra.Command
		args    []string
		wantErr string
	}{
		{"sizes bad fourcc", CreateSizesCmd, []string{"TOOLONG"}, "Invalid pixel format"},
		{"sizes missing device", CreateSizesCmd, []string{"--device", "/nonexistent/video99", "Y16"}, "Failed to open device"},
		{"formats missing device", CreateFormatsCmd, []string{"--device", "/nonexistent/video99"}, "Failed to open device"},
		{"formats unknown id", CreateFormatsCmd, []string{"--device", "no-such-camera-id"}, "Failed to open device"},
		{"policy bad preferred format", CreatePolicyCmd, []string{"--device", "/nonexistent/video99", "--preferred-format", "TOOLONG"}, "Failed to negotiate format"},
		{"info missing device", CreateInfoCmd, []string{"--device", "/nonexistent/video99"}, "Failed to read device info"},
		{"reg unknown name", CreateRegCmd, []string{"NOT_A_REGISTER"}, "Invalid register"},
		{"reg value overflow", CreateRegCmd, []string{"SERIAL_NUMBER", "0x100000000"}, "Invalid value"},
		{"sensor address overflow", CreateSensorCmd, []string{"0x10000"}, "Invalid address"},
		{"sensor missing device", CreateSensorCmd, []string{"--device", "/nonexistent/video99", "0x0016"}, "Sensor register access failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.create()
			var out, errOut bytes.Buffer
			c.SetOut(&out)
			c.SetErr(&errOut)
			c.SetArgs(tt.args)

			err := c.Execute()
			if err == nil {
				t.Fatal("Execute() error = nil, want error")
			}
			if !strings.HasPrefix(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %q, want prefix %q", err, tt.wantErr)
			}
			if strings.Contains(out.String()+errOut.String(), "Usage:") {
				t.Error("usage printed for a runtime error")
			}
		})
	}
}
