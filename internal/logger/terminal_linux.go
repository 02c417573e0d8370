//go:build linux

package logger

// TCGETS is the ioctl number for getting terminal attributes on Linux.
const ioctlTermiosReq = 0x5401
