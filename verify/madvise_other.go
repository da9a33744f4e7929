//go:build !linux

package verify

func adviseSequential(data []byte) {}
