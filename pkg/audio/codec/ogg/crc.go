package ogg

// The Ogg page checksum uses CRC-32 with polynomial 0x04C11DB7, no bit
// reflection and no final XOR. This is not the IEEE CRC-32 computed by
// hash/crc32, so the table is built here.

var crcTable [256]uint32

func init() {
	const poly = uint32(0x04C11DB7)
	for i := range crcTable {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = (r << 1) ^ poly
			} else {
				r <<= 1
			}
		}
		crcTable[i] = r
	}
}

func crcUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << 8) ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}
