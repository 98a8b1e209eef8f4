// Package ioctl wraps the ioctl system call.
package ioctl

import (
	"fmt"
	"reflect"
	"syscall"
)

// Command to be sent over ioctl.
type Command uintptr

// Direction bits of an encoded command, from <asm-generic/ioctl.h>.
const (
	dirWrite = 1
	dirRead  = 2
)

func (c Command) String() string {
	var (
		dir  = c >> 30 & 0x03
		size = c >> 16 & 0x3fff
		cmd  = c & 0xffff
		str  string
	)
	if dir == 0 {
		// Legacy commands, such as the console ones, carry no size.
		return fmt.Sprintf("ioctl %#04x", uintptr(cmd))
	}
	if dir&dirWrite > 0 {
		str += " write"
	}
	if dir&dirRead > 0 {
		str += " read"
	}
	return fmt.Sprintf("ioctl%s (%d bytes) %#04x", str, size, uintptr(cmd))
}

// Do executes the ioctl call with a pointer argument.
func Do(fd uintptr, command Command, ptr any) error {
	var p uintptr
	if ptr != nil {
		p = reflect.ValueOf(ptr).Pointer()
	}
	return Call(fd, uintptr(command), p)
}

// Call does a plain ioctl system call.
func Call(fd, command, arg uintptr) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, command, arg)
	if errno != 0 {
		return fmt.Errorf("%s failed: %v", Command(command), errno)
	}
	return nil
}
