package rtppacket

// NTPTimestamp is NTP wallclock time, seconds relative to 0h UTC on 1
// January 1900, split into a 32-bit integer part and a 32-bit
// fractional part.
type NTPTimestamp struct {
	Integer  uint32
	Fraction uint32
}

// NTPFromCompact expands a 32-bit compact NTP timestamp (RFC 3550's
// "middle 32 bits"): the high 16 bits are the integer part, the low 16
// bits are the high-order bits of the fraction.
func NTPFromCompact(compact uint32) NTPTimestamp {
	return NTPTimestamp{
		Integer:  compact >> 16,
		Fraction: compact << 16,
	}
}
