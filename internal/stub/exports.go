package stub

import (
	"unsafe"
)

// Export names of the live backend.
const (
	symSetupLogger         = "eds_live_setup_logger"
	symInit                = "eds_live_init"
	symInitAgent           = "eds_live_init_agent"
	symInitUser            = "eds_live_init_user"
	symShut                = "eds_live_shut"
	symFindByIESS          = "eds_live_find_by_iess"
	symFindByIESSNoCase    = "eds_live_find_by_iess_nocase"
	symFindByIDCS          = "eds_live_find_by_idcs"
	symFindByIDCSNoCase    = "eds_live_find_by_idcs_nocase"
	symHighestLID          = "eds_live_highest_lid"
	symPointCount          = "eds_live_point_count"
	symIsPointAlive        = "eds_live_is_point_alive"
	symSetInput            = "eds_live_set_input"
	symSetOutput           = "eds_live_set_output"
	symUnsetInput          = "eds_live_unset_input"
	symUnsetOutput         = "eds_live_unset_output"
	symSyncInput           = "eds_live_sync_input"
	symSyncOutput          = "eds_live_sync_output"
	symIsUpdateRequired    = "eds_live_is_update_required"
	symStaticInfoChanged   = "eds_live_static_info_changed"
	symDynamicInfoChanged  = "eds_live_dynamic_info_changed"
	symPointQuality        = "eds_live_point_quality"
	symPointSID            = "eds_live_point_sid"
	symPointIESS           = "eds_live_point_iess"
	symPointZD             = "eds_live_point_zd"
	symPointIDCS           = "eds_live_point_idcs"
	symPointDESC           = "eds_live_point_desc"
	symPointAUX            = "eds_live_point_aux"
	symPointRTString       = "eds_live_point_rt_string"
	symPointAR             = "eds_live_point_ar"
	symPointRT             = "eds_live_point_rt"
	symPointValue          = "eds_live_point_value"
	symPointSecGroups      = "eds_live_point_sec_groups"
	symPointTechGroups     = "eds_live_point_tech_groups"
	symReadAnalog          = "eds_live_read_analog"
	symReadDouble          = "eds_live_read_double"
	symReadPacked          = "eds_live_read_packed"
	symReadInt64           = "eds_live_read_int64"
	symReadBinary          = "eds_live_read_binary"
	symWriteAnalog         = "eds_live_write_analog"
	symWriteDouble         = "eds_live_write_double"
	symWritePacked         = "eds_live_write_packed"
	symWriteInt64          = "eds_live_write_int64"
	symWriteBinary         = "eds_live_write_binary"
	symFieldID             = "eds_live_field_id"
	symWDPFFieldID         = "eds_live_wdpf_field_id"
	symReadFieldInt        = "eds_live_read_field_int"
	symReadFieldFloat      = "eds_live_read_field_float"
	symReadFieldDouble     = "eds_live_read_field_double"
	symReadFieldString     = "eds_live_read_field_string"
	symReadWDPFFieldInt    = "eds_live_read_wdpf_field_int"
	symReadWDPFFieldFloat  = "eds_live_read_wdpf_field_float"
	symReadWDPFFieldDouble = "eds_live_read_wdpf_field_double"
	symReadWDPFFieldString = "eds_live_read_wdpf_field_string"
	symReadAT              = "eds_live_read_at"
	symWriteAT             = "eds_live_write_at"
	symWriteST             = "eds_live_write_st"
	symWriteXST            = "eds_live_write_xst"
)

// Pre92 lists the exports missing from backends older than EDS 9.2. Pass it
// to Loader.Register to simulate such a backend.
var Pre92 = []string{symInitAgent, symInitUser, symWriteAT, symWriteST}

// Pre73 lists the exports missing from backends older than EDS 7.3.
var Pre73 = append([]string{symWriteXST}, Pre92...)

// exports returns the in-process implementation of every export, keyed by
// symbol name. Signatures follow the native ABI of live backends.
func (s *Server) exports() map[string]any {
	return map[string]any{
		symSetupLogger: func(config string) {
			s.enter(symSetupLogger)
			s.logger = append(s.logger, config)
		},
		symInit: func(conn *uintptr, mode int32, lhost string, lport uint16, rhost string, rport uint16, lportRange uint16, maxPacket uint16) int32 {
			c, code := s.login(Login{Symbol: symInit, Mode: mode, RemoteHost: rhost, RemotePort: rport, MaxPacket: maxPacket})
			*conn = c
			return code
		},
		symInitAgent: func(conn *uintptr, mode int32, program string, instance string, lhost string, lport uint16, rhost string, rport uint16, lportRange uint16, maxPacket uint16) int32 {
			c, code := s.login(Login{Symbol: symInitAgent, Mode: mode, Program: program, Instance: instance, RemoteHost: rhost, RemotePort: rport, MaxPacket: maxPacket})
			*conn = c
			return code
		},
		symInitUser: func(conn *uintptr, user string, password string, lhost string, lport uint16, rhost string, rport uint16, lportRange uint16, maxPacket uint16) int32 {
			c, code := s.login(Login{Symbol: symInitUser, User: user, RemoteHost: rhost, RemotePort: rport, MaxPacket: maxPacket})
			*conn = c
			return code
		},
		symShut: s.shut,

		symFindByIESS: func(conn uintptr, name string, status *int32) int32 {
			lid, code := s.find(symFindByIESS, conn, name, false)
			*status = code
			return lid
		},
		symFindByIESSNoCase: func(conn uintptr, name string, status *int32) int32 {
			lid, code := s.find(symFindByIESSNoCase, conn, name, true)
			*status = code
			return lid
		},
		symFindByIDCS: func(conn uintptr, idcs string, zd string, status *int32) int32 {
			lid, code := s.findIDCS(symFindByIDCS, conn, idcs, zd, false)
			*status = code
			return lid
		},
		symFindByIDCSNoCase: func(conn uintptr, idcs string, zd string, status *int32) int32 {
			lid, code := s.findIDCS(symFindByIDCSNoCase, conn, idcs, zd, true)
			*status = code
			return lid
		},
		symHighestLID: func(conn uintptr, status *int32) int32 {
			n, code := s.count(symHighestLID, conn)
			*status = code
			return n - 1
		},
		symPointCount: func(conn uintptr, status *int32) int32 {
			n, code := s.count(symPointCount, conn)
			*status = code
			return n
		},
		symIsPointAlive: func(conn uintptr, lid int32, status *int32) bool {
			_, code := s.point(symIsPointAlive, conn, lid)
			*status = code
			return code == codeOK && !s.points[lid].Deleted
		},

		symSetInput: func(conn uintptr, lid int32) int32 {
			return s.subscribe(symSetInput, conn, lid, true, 1)
		},
		symSetOutput: func(conn uintptr, lid int32) int32 {
			return s.subscribe(symSetOutput, conn, lid, false, 1)
		},
		symUnsetInput: func(conn uintptr, lid int32) int32 {
			return s.subscribe(symUnsetInput, conn, lid, true, -1)
		},
		symUnsetOutput: func(conn uintptr, lid int32) int32 {
			return s.subscribe(symUnsetOutput, conn, lid, false, -1)
		},

		symSyncInput:  s.syncInput,
		symSyncOutput: s.syncOutput,
		symIsUpdateRequired: func(conn uintptr, status *int32) bool {
			v, code := s.flag(symIsUpdateRequired, conn, func(c *session) bool { return c.updateRequired })
			*status = code
			return v
		},
		symStaticInfoChanged: func(conn uintptr, status *int32) bool {
			v, code := s.flag(symStaticInfoChanged, conn, func(c *session) bool { return c.staticChanged })
			*status = code
			return v
		},
		symDynamicInfoChanged: func(conn uintptr, status *int32) bool {
			v, code := s.flag(symDynamicInfoChanged, conn, func(c *session) bool { return c.dynamicChanged })
			*status = code
			return v
		},

		symPointQuality: func(conn uintptr, lid int32, status *int32) byte {
			smp, code := s.read(symPointQuality, conn, lid)
			*status = code
			return smp.quality
		},
		symPointSID: func(conn uintptr, lid int32, status *int32) int32 {
			_, code := s.point(symPointSID, conn, lid)
			*status = code
			if code != codeOK {
				return 0
			}
			return s.points[lid].SID
		},
		symPointIESS:     s.stringGetter(symPointIESS, func(p Point) string { return p.IESS }),
		symPointZD:       s.stringGetter(symPointZD, func(p Point) string { return p.ZD }),
		symPointIDCS:     s.stringGetter(symPointIDCS, func(p Point) string { return p.IDCS }),
		symPointDESC:     s.stringGetter(symPointDESC, func(p Point) string { return p.Desc }),
		symPointAUX:      s.stringGetter(symPointAUX, func(p Point) string { return p.Aux }),
		symPointRTString: s.stringGetter(symPointRTString, func(p Point) string { return rtNames[p.RT] }),
		symPointAR:       s.letterGetter(symPointAR, func(p Point) string { return p.AR }),
		symPointRT:       s.letterGetter(symPointRT, func(p Point) string { return p.RT }),
		symPointValue: func(conn uintptr, lid int32, status *int32) string {
			v, code := s.field(symPointValue, conn, lid, s.fieldIDs["AV"])
			*status = code
			return v
		},
		symPointSecGroups: func(conn uintptr, lid int32, bits *byte, size int32) int32 {
			var set []int
			if s.valid(lid) {
				set = s.points[lid].SecGroups
			}
			return s.groups(symPointSecGroups, conn, lid, unsafe.Slice(bits, size), set)
		},
		symPointTechGroups: func(conn uintptr, lid int32, bits *byte, size int32) int32 {
			var set []int
			if s.valid(lid) {
				set = s.points[lid].TechGroups
			}
			return s.groups(symPointTechGroups, conn, lid, unsafe.Slice(bits, size), set)
		},

		symReadAnalog: func(conn uintptr, lid int32, quality *byte, status *int32) float32 {
			smp, code := s.read(symReadAnalog, conn, lid)
			*quality, *status = smp.quality, code
			return float32(smp.value)
		},
		symReadDouble: func(conn uintptr, lid int32, quality *byte, status *int32) float64 {
			smp, code := s.read(symReadDouble, conn, lid)
			*quality, *status = smp.quality, code
			return smp.value
		},
		symReadPacked: func(conn uintptr, lid int32, quality *byte, status *int32) uint32 {
			smp, code := s.read(symReadPacked, conn, lid)
			*quality, *status = smp.quality, code
			return uint32(smp.value)
		},
		symReadInt64: func(conn uintptr, lid int32, quality *byte, status *int32) int64 {
			smp, code := s.read(symReadInt64, conn, lid)
			*quality, *status = smp.quality, code
			return int64(smp.value)
		},
		symReadBinary: func(conn uintptr, lid int32, quality *byte, status *int32) bool {
			smp, code := s.read(symReadBinary, conn, lid)
			*quality, *status = smp.quality, code
			return smp.value != 0
		},

		symWriteAnalog: func(conn uintptr, lid int32, value float32, quality byte) int32 {
			return s.writeValue(symWriteAnalog, conn, lid, value, float64(value), quality)
		},
		symWriteDouble: func(conn uintptr, lid int32, value float64, quality byte) int32 {
			return s.writeValue(symWriteDouble, conn, lid, value, value, quality)
		},
		symWritePacked: func(conn uintptr, lid int32, value uint32, quality byte) int32 {
			return s.writeValue(symWritePacked, conn, lid, value, float64(value), quality)
		},
		symWriteInt64: func(conn uintptr, lid int32, value int64, quality byte) int32 {
			return s.writeValue(symWriteInt64, conn, lid, value, float64(value), quality)
		},
		symWriteBinary: func(conn uintptr, lid int32, value bool, quality byte) int32 {
			v := 0.0
			if value {
				v = 1
			}
			return s.writeValue(symWriteBinary, conn, lid, value, v, quality)
		},

		symFieldID: func(conn uintptr, name string, status *int32) int32 {
			id, code := s.fieldID(symFieldID, conn, name, s.fieldIDs)
			*status = code
			return id
		},
		symWDPFFieldID: func(conn uintptr, name string, status *int32) int32 {
			id, code := s.fieldID(symWDPFFieldID, conn, name, s.wdpfIDs)
			*status = code
			return id
		},
		symReadFieldInt: func(conn uintptr, lid int32, field int32, status *int32) int32 {
			v, code := s.field(symReadFieldInt, conn, lid, field)
			i, code := asInt(v, code)
			*status = code
			return int32(i)
		},
		symReadFieldFloat: func(conn uintptr, lid int32, field int32, status *int32) float32 {
			v, code := s.field(symReadFieldFloat, conn, lid, field)
			f, code := asFloat(v, code)
			*status = code
			return float32(f)
		},
		symReadFieldDouble: func(conn uintptr, lid int32, field int32, status *int32) float64 {
			v, code := s.field(symReadFieldDouble, conn, lid, field)
			f, code := asFloat(v, code)
			*status = code
			return f
		},
		symReadFieldString: func(conn uintptr, lid int32, field int32, status *int32) string {
			v, code := s.field(symReadFieldString, conn, lid, field)
			*status = code
			return v
		},
		symReadWDPFFieldInt: func(conn uintptr, lid int32, name string, status *int32) int32 {
			v, code := s.wdpfField(symReadWDPFFieldInt, conn, lid, name)
			i, code := asInt(v, code)
			*status = code
			return int32(i)
		},
		symReadWDPFFieldFloat: func(conn uintptr, lid int32, name string, status *int32) float32 {
			v, code := s.wdpfField(symReadWDPFFieldFloat, conn, lid, name)
			f, code := asFloat(v, code)
			*status = code
			return float32(f)
		},
		symReadWDPFFieldDouble: func(conn uintptr, lid int32, name string, status *int32) float64 {
			v, code := s.wdpfField(symReadWDPFFieldDouble, conn, lid, name)
			f, code := asFloat(v, code)
			*status = code
			return f
		},
		symReadWDPFFieldString: func(conn uintptr, lid int32, name string, status *int32) string {
			v, code := s.wdpfField(symReadWDPFFieldString, conn, lid, name)
			*status = code
			return v
		},

		symReadAT: func(conn uintptr, lid int32, micro bool, status *int32) int64 {
			smp, code := s.read(symReadAT, conn, lid)
			*status = code
			if micro {
				return smp.atMicro
			}
			return smp.atMicro / 1_000_000
		},
		symWriteAT: func(conn uintptr, lid int32, seconds uint32, useconds uint32) int32 {
			at := int64(seconds)*1_000_000 + int64(useconds)
			w := Write{Symbol: symWriteAT, LID: lid, Value: at}
			return s.write(w, conn, func(smp *sample) { smp.atMicro = at })
		},
		symWriteST: func(conn uintptr, lid int32, value uint32, mask uint32) int32 {
			w := Write{Symbol: symWriteST, LID: lid, Value: value, Mask: mask}
			return s.write(w, conn, func(smp *sample) { smp.st = smp.st&^mask | value&mask })
		},
		symWriteXST: func(conn uintptr, lid int32, n int32, value int32, mask int32) int32 {
			if n < 1 || n > 3 {
				s.enter(symWriteXST)
				return codeInvalidResult
			}
			v, m := uint32(value), uint32(mask)
			w := Write{Symbol: symWriteXST, LID: lid, Value: v, Mask: m, N: n}
			return s.write(w, conn, func(smp *sample) { smp.xst[n-1] = smp.xst[n-1]&^m | v&m })
		},
	}
}

func (s *Server) count(symbol string, conn uintptr) (int32, int32) {
	if code, failed := s.enter(symbol); failed {
		return 0, code
	}
	if _, code := s.session(conn); code != codeOK {
		return 0, code
	}
	return int32(len(s.points)), codeOK
}

func (s *Server) stringGetter(symbol string, get func(Point) string) func(conn uintptr, lid int32, status *int32) string {
	return func(conn uintptr, lid int32, status *int32) string {
		v, code := s.pointString(symbol, conn, lid, get)
		*status = code
		return v
	}
}

func (s *Server) letterGetter(symbol string, get func(Point) string) func(conn uintptr, lid int32, status *int32) byte {
	return func(conn uintptr, lid int32, status *int32) byte {
		v, code := s.pointString(symbol, conn, lid, get)
		*status = code
		if v == "" {
			return 0
		}
		return v[0]
	}
}

func asInt(v string, code int32) (int64, int32) {
	if code != codeOK {
		return 0, code
	}
	i, ok := parseInt(v)
	if !ok {
		return 0, codeInvalidResult
	}
	return i, codeOK
}

func asFloat(v string, code int32) (float64, int32) {
	if code != codeOK {
		return 0, code
	}
	f, ok := parseFloat(v)
	if !ok {
		return 0, codeInvalidResult
	}
	return f, codeOK
}
