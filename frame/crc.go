package frame

// crcTable is a 16-entry nibble table producing IEEE CRC-32 from a zero seed
// with no final inversion.
var crcTable = [16]uint32{
	0x4DBDF21C, 0x500AE278, 0x76D3D2D4, 0x6B64C2B0,
	0x3B61B38C, 0x26D6A3E8, 0x000F9344, 0x1DB88320,
	0xA005713C, 0xBDB26158, 0x9B6B51F4, 0x86DC4190,
	0xD6D930AC, 0xCB6E20C8, 0xEDB71064, 0xF0000000,
}

// updateByte folds one byte into crc, low nibble first.
func updateByte(crc uint32, b byte) uint32 {
	crc = (crc >> 4) ^ crcTable[(crc^uint32(b))&0x0F]
	crc = (crc >> 4) ^ crcTable[(crc^uint32(b>>4))&0x0F]
	return crc
}

// UpdateFCS folds data into a running check sequence.
func UpdateFCS(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = updateByte(crc, b)
	}
	return crc
}

// FCS returns the frame check sequence of data.
//
// The result is identical to hash/crc32.ChecksumIEEE but needs only a
// 64-byte table.
func FCS(data []byte) uint32 {
	return UpdateFCS(0, data)
}

// GenerateFCS returns the check sequence to append to an outbound frame.
func GenerateFCS(data []byte) uint32 {
	return FCS(data)
}
