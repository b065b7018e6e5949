package core

// Fault and trace text is built without fmt so the firmware image stays small.

// utoa formats n in decimal
func utoa(n uint32) string {
	var buf [10]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			return string(buf[i:])
		}
	}
}

// Itoa formats a signed n in decimal. Shared by firmware packages that
// cannot pull in strconv.
func Itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

const hexDigits = "0123456789ABCDEF"

// hex8 formats a byte as 0xNN
func hex8(b uint8) string {
	return "0x" + string([]byte{hexDigits[b>>4], hexDigits[b&0x0F]})
}
