package live

import "time"

// ReadAnalog returns the value and quality of an analog point. Input points
// carry the value fetched by the last SynchronizeInput.
func (c *Client) ReadAnalog(lid int32) (float32, Quality, error) {
	return readValue(c, &c.fns.readAnalog, lid)
}

func (c *Client) ReadDouble(lid int32) (float64, Quality, error) {
	return readValue(c, &c.fns.readDouble, lid)
}

// ReadPacked returns the 32-bit word of a packed point.
func (c *Client) ReadPacked(lid int32) (uint32, Quality, error) {
	return readValue(c, &c.fns.readPacked, lid)
}

func (c *Client) ReadInt64(lid int32) (int64, Quality, error) {
	return readValue(c, &c.fns.readInt64, lid)
}

func (c *Client) ReadBinary(lid int32) (bool, Quality, error) {
	return readValue(c, &c.fns.readBinary, lid)
}

// WriteAnalog stores a value for an output point. It reaches the server
// with the next SynchronizeOutput.
func (c *Client) WriteAnalog(lid int32, value float32, q Quality) error {
	return writeValue(c, &c.fns.writeAnalog, lid, value, q)
}

func (c *Client) WriteDouble(lid int32, value float64, q Quality) error {
	return writeValue(c, &c.fns.writeDouble, lid, value, q)
}

func (c *Client) WritePacked(lid int32, value uint32, q Quality) error {
	return writeValue(c, &c.fns.writePacked, lid, value, q)
}

func (c *Client) WriteInt64(lid int32, value int64, q Quality) error {
	return writeValue(c, &c.fns.writeInt64, lid, value, q)
}

func (c *Client) WriteBinary(lid int32, value bool, q Quality) error {
	return writeValue(c, &c.fns.writeBinary, lid, value, q)
}

func readValue[T any](c *Client, b *binding[func(conn uintptr, lid int32, quality *byte, status *int32) T], lid int32) (T, Quality, error) {
	var zero T
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return zero, 0, err
	}
	var q byte
	var status int32
	v := fn(conn, lid, &q, &status)
	if err := codeError(status); err != nil {
		return zero, 0, err
	}
	return v, Quality(q), nil
}

func writeValue[T any](c *Client, b *binding[func(conn uintptr, lid int32, value T, quality byte) int32], lid int32, value T, q Quality) error {
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return err
	}
	return codeError(fn(conn, lid, value, byte(q)))
}

// FieldIDFromName returns the id of a point field such as "ST" or "XST1".
// Cache the result; ReadField* by id skips the lookup.
func (c *Client) FieldIDFromName(name string) (FieldID, error) {
	return c.fieldID(&c.fns.fieldIDFromName, name)
}

// FieldIDFromWDPFName returns the id of a WDPF field. WDPF ids are only
// meaningful to the backend that issued them; the ReadWDPFField* functions
// address WDPF fields by name.
func (c *Client) FieldIDFromWDPFName(name string) (FieldID, error) {
	return c.fieldID(&c.fns.fieldIDFromWDPFName, name)
}

func (c *Client) fieldID(b *binding[fieldIDFunc], name string) (FieldID, error) {
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return -1, err
	}
	var status int32
	id := fn(conn, name, &status)
	if err := codeError(status); err != nil {
		return -1, err
	}
	return FieldID(id), nil
}

func (c *Client) ReadFieldInt(lid int32, field FieldID) (int32, error) {
	return readField(c, &c.fns.readFieldInt, lid, field)
}

func (c *Client) ReadFieldFloat(lid int32, field FieldID) (float32, error) {
	return readField(c, &c.fns.readFieldFloat, lid, field)
}

func (c *Client) ReadFieldDouble(lid int32, field FieldID) (float64, error) {
	return readField(c, &c.fns.readFieldDouble, lid, field)
}

func (c *Client) ReadFieldString(lid int32, field FieldID) (string, error) {
	return readField(c, &c.fns.readFieldString, lid, field)
}

// ReadFieldIntByName resolves name with FieldIDFromName on every call.
func (c *Client) ReadFieldIntByName(lid int32, name string) (int32, error) {
	return readFieldByName(c, &c.fns.readFieldInt, lid, name)
}

func (c *Client) ReadFieldFloatByName(lid int32, name string) (float32, error) {
	return readFieldByName(c, &c.fns.readFieldFloat, lid, name)
}

func (c *Client) ReadFieldDoubleByName(lid int32, name string) (float64, error) {
	return readFieldByName(c, &c.fns.readFieldDouble, lid, name)
}

func (c *Client) ReadFieldStringByName(lid int32, name string) (string, error) {
	return readFieldByName(c, &c.fns.readFieldString, lid, name)
}

func readField[T any](c *Client, b *binding[func(conn uintptr, lid int32, field int32, status *int32) T], lid int32, field FieldID) (T, error) {
	var zero T
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return zero, err
	}
	var status int32
	v := fn(conn, lid, int32(field), &status)
	if err := codeError(status); err != nil {
		return zero, err
	}
	return v, nil
}

func readFieldByName[T any](c *Client, b *binding[func(conn uintptr, lid int32, field int32, status *int32) T], lid int32, name string) (T, error) {
	// Check the reader first so an unsupported read does not cost a lookup.
	if _, _, err := dispatch(c, b); err != nil {
		var zero T
		return zero, err
	}
	id, err := c.FieldIDFromName(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return readField(c, b, lid, id)
}

func (c *Client) ReadWDPFFieldInt(lid int32, name string) (int32, error) {
	return readWDPFField(c, &c.fns.readWDPFFieldInt, lid, name)
}

func (c *Client) ReadWDPFFieldFloat(lid int32, name string) (float32, error) {
	return readWDPFField(c, &c.fns.readWDPFFieldFloat, lid, name)
}

func (c *Client) ReadWDPFFieldDouble(lid int32, name string) (float64, error) {
	return readWDPFField(c, &c.fns.readWDPFFieldDouble, lid, name)
}

func (c *Client) ReadWDPFFieldString(lid int32, name string) (string, error) {
	return readWDPFField(c, &c.fns.readWDPFFieldString, lid, name)
}

func readWDPFField[T any](c *Client, b *binding[func(conn uintptr, lid int32, name string, status *int32) T], lid int32, name string) (T, error) {
	var zero T
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return zero, err
	}
	var status int32
	v := fn(conn, lid, name, &status)
	if err := codeError(status); err != nil {
		return zero, err
	}
	return v, nil
}

// ReadAT returns the timestamp of the point's value since 1970-01-01 UTC in
// the requested unit.
func (c *Client) ReadAT(lid int32, unit TimeUnit) (int64, error) {
	fn, conn, err := dispatch(c, &c.fns.readAT)
	if err != nil {
		return 0, err
	}
	var status int32
	v := fn(conn, lid, unit == Microseconds, &status)
	if err := codeError(status); err != nil {
		return 0, err
	}
	return v, nil
}

// ReadATTime is ReadAT at microsecond resolution as a UTC time.
func (c *Client) ReadATTime(lid int32) (time.Time, error) {
	us, err := c.ReadAT(lid, Microseconds)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(us).UTC(), nil
}

// WriteAT sets the timestamp of an output point.
func (c *Client) WriteAT(lid int32, seconds, useconds uint32) error {
	fn, conn, err := dispatch(c, &c.fns.writeAT)
	if err != nil {
		return err
	}
	return codeError(fn(conn, lid, seconds, useconds))
}

// WriteST sets the bits of the ST field selected by mask to value. Both are
// passed to the backend unmodified. Alarm priority and number are stored
// minus one; see EncodeAlarm.
func (c *Client) WriteST(lid int32, value, mask uint32) error {
	fn, conn, err := dispatch(c, &c.fns.writeST)
	if err != nil {
		return err
	}
	return codeError(fn(conn, lid, value, mask))
}

// WriteXSTn sets the masked bits of the extended status field XSTn.
func (c *Client) WriteXSTn(lid int32, n int32, value, mask uint32) error {
	fn, conn, err := dispatch(c, &c.fns.writeXSTn)
	if err != nil {
		return err
	}
	return codeError(fn(conn, lid, n, int32(value), int32(mask)))
}
