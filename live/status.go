package live

// StatusBit is a bit (or bit field) of a point's 32-bit ST word. The layout
// is shared with EDS servers and must not change.
type StatusBit uint32

const (
	StAlarmBetter     StatusBit = 0x00000001 // alarm condition is improving
	StAlarmWorse      StatusBit = 0x00000002 // alarm condition is worsening
	StAlarmLow        StatusBit = 0x00000004
	StAlarmHigh       StatusBit = 0x00000008
	StAlarmSuppressed StatusBit = 0x00000010
	StAlarmUnack      StatusBit = 0x00000020
	StAlarmCutout     StatusBit = 0x00000040
	StAlarmOn         StatusBit = 0x00000080
	StQualityGood     StatusBit = 0x00000000
	StQualityFair     StatusBit = 0x00000100
	StQualityPoor     StatusBit = 0x00000200
	StQualityBad      StatusBit = 0x00000300
	StAlarmStale      StatusBit = 0x00000400 // alarm data could not be read completely from the remote system
	StOffScan         StatusBit = 0x00000800 // cannot be set through WriteST
	StVirtual         StatusBit = 0x00002000 // internal
	StNoValue         StatusBit = 0x00004000 // internal
	StTimedOut        StatusBit = 0x00008000
	StAlarmPriority   StatusBit = 0x00070000 // priority 1-8, stored minus one
	StAlarmNumber     StatusBit = 0x00700000 // number 1-4, stored minus one
	StNoAccess        StatusBit = 0x04000000 // value withheld by security groups
	StRemOffScan      StatusBit = 0x08000000
	StForceArchive    StatusBit = 0x10000000 // internal
	StRemError        StatusBit = 0x20000000 // internal
	StAlarmToggled    StatusBit = 0x40000000 // internal
	StRemTimedOut     StatusBit = 0x80000000

	// StQualityMask covers the 2-bit quality field.
	StQualityMask StatusBit = 0x00000300
)

const (
	alarmPriorityShift = 16
	alarmNumberShift   = 20
)

// Status is a decoded view of an ST word, for callers that read it with
// ReadFieldInt.
type Status uint32

// Has reports whether every bit of b is set.
func (s Status) Has(b StatusBit) bool {
	return uint32(s)&uint32(b) == uint32(b)
}

// Quality returns the quality encoded in the 2-bit quality field.
func (s Status) Quality() Quality {
	switch StatusBit(s) & StQualityMask {
	case StQualityFair:
		return QualityFair
	case StQualityPoor:
		return QualityPoor
	case StQualityBad:
		return QualityBad
	default:
		return QualityGood
	}
}

// AlarmPriority returns the alarm priority (1-8).
func (s Status) AlarmPriority() int {
	return int((uint32(s)&uint32(StAlarmPriority))>>alarmPriorityShift) + 1
}

// AlarmNumber returns the alarm number (1-4).
func (s Status) AlarmNumber() int {
	return int((uint32(s)&uint32(StAlarmNumber))>>alarmNumberShift) + 1
}

// EncodeAlarm returns the ST bits carrying an alarm priority (1-8) and
// number (1-4), already decremented as the wire format requires, together
// with the mask covering both fields. WriteST itself never adjusts bits;
// callers building a value by hand must pre-decrement.
//
// For example EncodeAlarm(4, 2) yields value 0x00130000 and mask 0x00770000.
func EncodeAlarm(priority, number int) (value, mask uint32) {
	p := uint32(priority-1) & 0x7
	n := uint32(number-1) & 0x7
	value = p<<alarmPriorityShift | n<<alarmNumberShift
	mask = uint32(StAlarmPriority | StAlarmNumber)
	return value, mask
}
