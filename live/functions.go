package live

import (
	"errors"
	"fmt"

	"github.com/roach88/edsapi/backend"
)

// Backend ABI. Every function taking a connection receives the opaque handle
// created by one of the init functions. Functions returning a value report
// their status through the trailing *int32; the others return it.
type (
	setupLoggerFunc = func(config string)
	initFunc        = func(conn *uintptr, mode int32, lhost string, lport uint16, rhost string, rport uint16, lportRange uint16, maxPacket uint16) int32
	initAgentFunc   = func(conn *uintptr, mode int32, program string, instance string, lhost string, lport uint16, rhost string, rport uint16, lportRange uint16, maxPacket uint16) int32
	initUserFunc    = func(conn *uintptr, user string, password string, lhost string, lport uint16, rhost string, rport uint16, lportRange uint16, maxPacket uint16) int32
	connFunc        = func(conn uintptr) int32
	connIntFunc     = func(conn uintptr, status *int32) int32
	connBoolFunc    = func(conn uintptr, status *int32) bool
	findFunc        = func(conn uintptr, name string, status *int32) int32
	findPairFunc    = func(conn uintptr, idcs string, zd string, status *int32) int32
	lidFunc         = func(conn uintptr, lid int32) int32
	lidBoolFunc     = func(conn uintptr, lid int32, status *int32) bool
	lidByteFunc     = func(conn uintptr, lid int32, status *int32) byte
	lidIntFunc      = func(conn uintptr, lid int32, status *int32) int32
	lidStringFunc   = func(conn uintptr, lid int32, status *int32) string
	groupsFunc      = func(conn uintptr, lid int32, bits *byte, size int32) int32

	readFloatFunc  = func(conn uintptr, lid int32, quality *byte, status *int32) float32
	readDoubleFunc = func(conn uintptr, lid int32, quality *byte, status *int32) float64
	readPackedFunc = func(conn uintptr, lid int32, quality *byte, status *int32) uint32
	readInt64Func  = func(conn uintptr, lid int32, quality *byte, status *int32) int64
	readBoolFunc   = func(conn uintptr, lid int32, quality *byte, status *int32) bool

	writeFloatFunc  = func(conn uintptr, lid int32, value float32, quality byte) int32
	writeDoubleFunc = func(conn uintptr, lid int32, value float64, quality byte) int32
	writePackedFunc = func(conn uintptr, lid int32, value uint32, quality byte) int32
	writeInt64Func  = func(conn uintptr, lid int32, value int64, quality byte) int32
	writeBoolFunc   = func(conn uintptr, lid int32, value bool, quality byte) int32

	fieldIDFunc         = func(conn uintptr, name string, status *int32) int32
	fieldIntFunc        = func(conn uintptr, lid int32, field int32, status *int32) int32
	fieldFloatFunc      = func(conn uintptr, lid int32, field int32, status *int32) float32
	fieldDoubleFunc     = func(conn uintptr, lid int32, field int32, status *int32) float64
	fieldStringFunc     = func(conn uintptr, lid int32, field int32, status *int32) string
	wdpfFieldIntFunc    = func(conn uintptr, lid int32, name string, status *int32) int32
	wdpfFieldFloatFunc  = func(conn uintptr, lid int32, name string, status *int32) float32
	wdpfFieldDoubleFunc = func(conn uintptr, lid int32, name string, status *int32) float64
	wdpfFieldStringFunc = func(conn uintptr, lid int32, name string, status *int32) string
	readATFunc          = func(conn uintptr, lid int32, micro bool, status *int32) int64
	writeATFunc         = func(conn uintptr, lid int32, seconds uint32, useconds uint32) int32
	writeMaskedFunc     = func(conn uintptr, lid int32, value uint32, mask uint32) int32
	writeXSTFunc        = func(conn uintptr, lid int32, n int32, value int32, mask int32) int32
)

// binding is one entry of the function table: the bound export and the
// operation it serves.
type binding[F any] struct {
	fn   backend.Function[F]
	info Export
}

// functionTable holds every backend function the client may call. It is
// built once, at construction.
type functionTable struct {
	setupLogger       binding[setupLoggerFunc]
	init              binding[initFunc]
	initializeAsAgent binding[initAgentFunc]
	initializeAsUser  binding[initUserFunc]
	shut              binding[connFunc]

	findByIESS       binding[findFunc]
	findByIESSNoCase binding[findFunc]
	findByIDCS       binding[findPairFunc]
	findByIDCSNoCase binding[findPairFunc]
	highestLID       binding[connIntFunc]
	pointCount       binding[connIntFunc]
	isPointAlive     binding[lidBoolFunc]

	setInput    binding[lidFunc]
	setOutput   binding[lidFunc]
	unsetInput  binding[lidFunc]
	unsetOutput binding[lidFunc]

	synchronizeInput   binding[connFunc]
	synchronizeOutput  binding[connFunc]
	isUpdateRequired   binding[connBoolFunc]
	staticInfoChanged  binding[connBoolFunc]
	dynamicInfoChanged binding[connBoolFunc]

	pointQuality    binding[lidByteFunc]
	pointSID        binding[lidIntFunc]
	pointIESS       binding[lidStringFunc]
	pointZD         binding[lidStringFunc]
	pointIDCS       binding[lidStringFunc]
	pointDESC       binding[lidStringFunc]
	pointAUX        binding[lidStringFunc]
	pointRTString   binding[lidStringFunc]
	pointAR         binding[lidByteFunc]
	pointRT         binding[lidByteFunc]
	pointValue      binding[lidStringFunc]
	pointSecGroups  binding[groupsFunc]
	pointTechGroups binding[groupsFunc]

	readAnalog  binding[readFloatFunc]
	readDouble  binding[readDoubleFunc]
	readPacked  binding[readPackedFunc]
	readInt64   binding[readInt64Func]
	readBinary  binding[readBoolFunc]
	writeAnalog binding[writeFloatFunc]
	writeDouble binding[writeDoubleFunc]
	writePacked binding[writePackedFunc]
	writeInt64  binding[writeInt64Func]
	writeBinary binding[writeBoolFunc]

	fieldIDFromName     binding[fieldIDFunc]
	fieldIDFromWDPFName binding[fieldIDFunc]
	readFieldInt        binding[fieldIntFunc]
	readFieldFloat      binding[fieldFloatFunc]
	readFieldDouble     binding[fieldDoubleFunc]
	readFieldString     binding[fieldStringFunc]
	readWDPFFieldInt    binding[wdpfFieldIntFunc]
	readWDPFFieldFloat  binding[wdpfFieldFloatFunc]
	readWDPFFieldDouble binding[wdpfFieldDoubleFunc]
	readWDPFFieldString binding[wdpfFieldStringFunc]

	readAT    binding[readATFunc]
	writeAT   binding[writeATFunc]
	writeST   binding[writeMaskedFunc]
	writeXSTn binding[writeXSTFunc]
}

// capability is the type-erased view of a binding used for reporting.
type capability interface {
	export() Export
	resolved() bool
}

func (b *binding[F]) export() Export  { return b.info }
func (b *binding[F]) resolved() bool { return b.fn.Resolved() }

// entries lists every binding keyed by operation name.
func (t *functionTable) entries() map[string]capability {
	return map[string]capability{
		"setupLogger":         &t.setupLogger,
		"init":                &t.init,
		"initializeAsAgent":   &t.initializeAsAgent,
		"initializeAsUser":    &t.initializeAsUser,
		"shut":                &t.shut,
		"findByIESS":          &t.findByIESS,
		"findByIESSNoCase":    &t.findByIESSNoCase,
		"findByIDCS":          &t.findByIDCS,
		"findByIDCSNoCase":    &t.findByIDCSNoCase,
		"highestLID":          &t.highestLID,
		"pointCount":          &t.pointCount,
		"isPointAlive":        &t.isPointAlive,
		"setInput":            &t.setInput,
		"setOutput":           &t.setOutput,
		"unsetInput":          &t.unsetInput,
		"unsetOutput":         &t.unsetOutput,
		"synchronizeInput":    &t.synchronizeInput,
		"synchronizeOutput":   &t.synchronizeOutput,
		"isUpdateRequired":    &t.isUpdateRequired,
		"staticInfoChanged":   &t.staticInfoChanged,
		"dynamicInfoChanged":  &t.dynamicInfoChanged,
		"pointQuality":        &t.pointQuality,
		"pointSID":            &t.pointSID,
		"pointIESS":           &t.pointIESS,
		"pointZD":             &t.pointZD,
		"pointIDCS":           &t.pointIDCS,
		"pointDESC":           &t.pointDESC,
		"pointAUX":            &t.pointAUX,
		"pointRTString":       &t.pointRTString,
		"pointAR":             &t.pointAR,
		"pointRT":             &t.pointRT,
		"pointValue":          &t.pointValue,
		"pointSecGroups":      &t.pointSecGroups,
		"pointTechGroups":     &t.pointTechGroups,
		"readAnalog":          &t.readAnalog,
		"readDouble":          &t.readDouble,
		"readPacked":          &t.readPacked,
		"readInt64":           &t.readInt64,
		"readBinary":          &t.readBinary,
		"writeAnalog":         &t.writeAnalog,
		"writeDouble":         &t.writeDouble,
		"writePacked":         &t.writePacked,
		"writeInt64":          &t.writeInt64,
		"writeBinary":         &t.writeBinary,
		"fieldIdFromName":     &t.fieldIDFromName,
		"fieldIdFromWDPFName": &t.fieldIDFromWDPFName,
		"readFieldInt":        &t.readFieldInt,
		"readFieldFloat":      &t.readFieldFloat,
		"readFieldDouble":     &t.readFieldDouble,
		"readFieldString":     &t.readFieldString,
		"readWDPFFieldInt":    &t.readWDPFFieldInt,
		"readWDPFFieldFloat":  &t.readWDPFFieldFloat,
		"readWDPFFieldDouble": &t.readWDPFFieldDouble,
		"readWDPFFieldString": &t.readWDPFFieldString,
		"readAT":              &t.readAT,
		"writeAT":             &t.writeAT,
		"writeST":             &t.writeST,
		"writeXSTn":           &t.writeXSTn,
	}
}

// bindTable resolves every export of table in b.
func bindTable(b *backend.Backend, table ExportTable) (*functionTable, error) {
	t := &functionTable{}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(bindOne(&t.setupLogger, b, table, "setupLogger"))
	add(bindOne(&t.init, b, table, "init"))
	add(bindOne(&t.initializeAsAgent, b, table, "initializeAsAgent"))
	add(bindOne(&t.initializeAsUser, b, table, "initializeAsUser"))
	add(bindOne(&t.shut, b, table, "shut"))

	add(bindOne(&t.findByIESS, b, table, "findByIESS"))
	add(bindOne(&t.findByIESSNoCase, b, table, "findByIESSNoCase"))
	add(bindOne(&t.findByIDCS, b, table, "findByIDCS"))
	add(bindOne(&t.findByIDCSNoCase, b, table, "findByIDCSNoCase"))
	add(bindOne(&t.highestLID, b, table, "highestLID"))
	add(bindOne(&t.pointCount, b, table, "pointCount"))
	add(bindOne(&t.isPointAlive, b, table, "isPointAlive"))

	add(bindOne(&t.setInput, b, table, "setInput"))
	add(bindOne(&t.setOutput, b, table, "setOutput"))
	add(bindOne(&t.unsetInput, b, table, "unsetInput"))
	add(bindOne(&t.unsetOutput, b, table, "unsetOutput"))

	add(bindOne(&t.synchronizeInput, b, table, "synchronizeInput"))
	add(bindOne(&t.synchronizeOutput, b, table, "synchronizeOutput"))
	add(bindOne(&t.isUpdateRequired, b, table, "isUpdateRequired"))
	add(bindOne(&t.staticInfoChanged, b, table, "staticInfoChanged"))
	add(bindOne(&t.dynamicInfoChanged, b, table, "dynamicInfoChanged"))

	add(bindOne(&t.pointQuality, b, table, "pointQuality"))
	add(bindOne(&t.pointSID, b, table, "pointSID"))
	add(bindOne(&t.pointIESS, b, table, "pointIESS"))
	add(bindOne(&t.pointZD, b, table, "pointZD"))
	add(bindOne(&t.pointIDCS, b, table, "pointIDCS"))
	add(bindOne(&t.pointDESC, b, table, "pointDESC"))
	add(bindOne(&t.pointAUX, b, table, "pointAUX"))
	add(bindOne(&t.pointRTString, b, table, "pointRTString"))
	add(bindOne(&t.pointAR, b, table, "pointAR"))
	add(bindOne(&t.pointRT, b, table, "pointRT"))
	add(bindOne(&t.pointValue, b, table, "pointValue"))
	add(bindOne(&t.pointSecGroups, b, table, "pointSecGroups"))
	add(bindOne(&t.pointTechGroups, b, table, "pointTechGroups"))

	add(bindOne(&t.readAnalog, b, table, "readAnalog"))
	add(bindOne(&t.readDouble, b, table, "readDouble"))
	add(bindOne(&t.readPacked, b, table, "readPacked"))
	add(bindOne(&t.readInt64, b, table, "readInt64"))
	add(bindOne(&t.readBinary, b, table, "readBinary"))
	add(bindOne(&t.writeAnalog, b, table, "writeAnalog"))
	add(bindOne(&t.writeDouble, b, table, "writeDouble"))
	add(bindOne(&t.writePacked, b, table, "writePacked"))
	add(bindOne(&t.writeInt64, b, table, "writeInt64"))
	add(bindOne(&t.writeBinary, b, table, "writeBinary"))

	add(bindOne(&t.fieldIDFromName, b, table, "fieldIdFromName"))
	add(bindOne(&t.fieldIDFromWDPFName, b, table, "fieldIdFromWDPFName"))
	add(bindOne(&t.readFieldInt, b, table, "readFieldInt"))
	add(bindOne(&t.readFieldFloat, b, table, "readFieldFloat"))
	add(bindOne(&t.readFieldDouble, b, table, "readFieldDouble"))
	add(bindOne(&t.readFieldString, b, table, "readFieldString"))
	add(bindOne(&t.readWDPFFieldInt, b, table, "readWDPFFieldInt"))
	add(bindOne(&t.readWDPFFieldFloat, b, table, "readWDPFFieldFloat"))
	add(bindOne(&t.readWDPFFieldDouble, b, table, "readWDPFFieldDouble"))
	add(bindOne(&t.readWDPFFieldString, b, table, "readWDPFFieldString"))

	add(bindOne(&t.readAT, b, table, "readAT"))
	add(bindOne(&t.writeAT, b, table, "writeAT"))
	add(bindOne(&t.writeST, b, table, "writeST"))
	add(bindOne(&t.writeXSTn, b, table, "writeXSTn"))

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

func bindOne[F any](dst *binding[F], b *backend.Backend, table ExportTable, method string) error {
	e, ok := table.Lookup(method)
	if !ok {
		return fmt.Errorf("export table has no entry for %s", method)
	}
	fn, err := backend.Bind[F](b, e.Symbol)
	if err != nil {
		return err
	}
	dst.fn = fn
	dst.info = e
	return nil
}
