package protocols

const (
	crc16Init uint16 = 0xFFFF
	crc16Poly uint16 = 0x1021
)

func crc16Update(crc uint16, b byte) uint16 {
	crc ^= uint16(b) << 8
	for i := 0; i < 8; i++ {
		if crc&0x8000 != 0 {
			crc = crc<<1 ^ crc16Poly
		} else {
			crc <<= 1
		}
	}
	return crc
}

// CRC16 computes CRC-16-CCITT with initial value 0xFFFF.
func CRC16(p []byte) uint16 {
	crc := crc16Init
	for _, b := range p {
		crc = crc16Update(crc, b)
	}
	return crc
}
