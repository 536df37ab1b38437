package malloc

import "golang.org/x/sys/unix"

// osmalloc allocate `n` bytes of anonymous memory from the OS, outside
// of the go heap. Returns nil if the OS refuses the mapping.
func osmalloc(n int64) []byte {
	mem, err := unix.Mmap(
		-1, 0, int(n),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil
	}
	return mem
}

// osfree return a mapping obtained from osmalloc back to the OS.
func osfree(mem []byte) {
	if mem != nil {
		unix.Munmap(mem)
	}
}
