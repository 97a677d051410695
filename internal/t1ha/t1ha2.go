// Package t1ha implements the t1ha2-atonce-128 hash used for content
// addressing. The function is a port of the portable little-endian reference;
// it is not cryptographic and is used strictly as a fast content fingerprint.
package t1ha

import (
	"encoding/binary"
	"math/bits"
)

const (
	prime0 = 0xEC99BF0D8372CAAB
	prime1 = 0x82434FE90EDCEF39
	prime2 = 0xD4F06DB99D67BE4B
	prime3 = 0xBD9CACC22C6E9571
	prime4 = 0x9C06FAF4D023E3AB
	prime5 = 0xC060724A8424F345
	prime6 = 0xCB5AF53AE3AAAC31
)

type state struct {
	a, b, c, d uint64
}

func rot64(v uint64, s int) uint64 {
	return bits.RotateLeft64(v, -s)
}

// mixup64 folds the 128-bit product of (b+v)*prime back into the state.
func mixup64(a, b *uint64, v, prime uint64) {
	hi, lo := bits.Mul64(*b+v, prime)
	*a ^= lo
	*b += hi
}

func initState(seed, length uint64) state {
	var s state
	s.a = seed
	s.b = length
	s.c = rot64(length, 23) + ^seed
	s.d = ^length + rot64(seed, 19)
	return s
}

func (s *state) update(w0, w1, w2, w3 uint64) {
	d02 := w0 + rot64(w2+s.d, 56)
	c13 := w1 + rot64(w3+s.c, 57)
	s.d ^= s.b + rot64(w1, 38)
	s.c ^= s.a + rot64(w0, 57)
	s.b ^= prime6 * (c13 + w2)
	s.a ^= prime5 * (d02 + w3)
}

// tail64 loads the last 1..8 bytes of a group little-endian.
func tail64(p []byte) uint64 {
	var r uint64
	for i := len(p) - 1; i >= 0; i-- {
		r = r<<8 | uint64(p[i])
	}
	return r
}

func final128(s state) (uint64, uint64) {
	mixup64(&s.a, &s.b, rot64(s.c, 41)^s.d, prime0)
	mixup64(&s.b, &s.c, rot64(s.d, 23)^s.a, prime6)
	mixup64(&s.c, &s.d, rot64(s.a, 19)^s.b, prime5)
	mixup64(&s.d, &s.a, rot64(s.b, 31)^s.c, prime4)
	return s.a ^ s.b, s.c + s.d
}

// Sum128 computes the t1ha2-atonce-128 digest of data with the given seed.
// The primary word is returned first, the extra word second.
func Sum128(data []byte, seed uint64) (uint64, uint64) {
	s := initState(seed, uint64(len(data)))

	if len(data) > 32 {
		for len(data) > 31 {
			s.update(
				binary.LittleEndian.Uint64(data[0:8]),
				binary.LittleEndian.Uint64(data[8:16]),
				binary.LittleEndian.Uint64(data[16:24]),
				binary.LittleEndian.Uint64(data[24:32]),
			)
			data = data[32:]
		}
	}

	// Tail of 0..32 bytes: up to three full words, then the last 1..8 byte
	// group, each folded with its own prime.
	switch n := len(data); {
	case n > 24:
		mixup64(&s.a, &s.d, binary.LittleEndian.Uint64(data[0:8]), prime4)
		data = data[8:]
		fallthrough
	case n > 16:
		mixup64(&s.b, &s.a, binary.LittleEndian.Uint64(data[0:8]), prime3)
		data = data[8:]
		fallthrough
	case n > 8:
		mixup64(&s.c, &s.b, binary.LittleEndian.Uint64(data[0:8]), prime2)
		data = data[8:]
		fallthrough
	case n > 0:
		mixup64(&s.d, &s.c, tail64(data), prime1)
	}
	return final128(s)
}

// Digest128 returns the digest as 16 bytes: primary word little-endian
// followed by the extra word little-endian.
func Digest128(data []byte, seed uint64) [16]byte {
	var out [16]byte
	h, x := Sum128(data, seed)
	binary.LittleEndian.PutUint64(out[0:8], h)
	binary.LittleEndian.PutUint64(out[8:16], x)
	return out
}
