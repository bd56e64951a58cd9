package live

// NoPoint is the local id returned by the Find functions for unknown points.
const NoPoint int32 = -1

// FindByIESS returns the local id of the point named iess, or NoPoint.
func (c *Client) FindByIESS(iess string) (int32, error) {
	return c.find(&c.fns.findByIESS, iess)
}

// FindByIESSNoCase is FindByIESS with case-insensitive matching.
func (c *Client) FindByIESSNoCase(iess string) (int32, error) {
	return c.find(&c.fns.findByIESSNoCase, iess)
}

// FindByIDCS returns the local id of the point with the given IDCS name in
// zone zd, or NoPoint.
func (c *Client) FindByIDCS(idcs, zd string) (int32, error) {
	return c.findPair(&c.fns.findByIDCS, idcs, zd)
}

// FindByIDCSNoCase is FindByIDCS with case-insensitive matching.
func (c *Client) FindByIDCSNoCase(idcs, zd string) (int32, error) {
	return c.findPair(&c.fns.findByIDCSNoCase, idcs, zd)
}

func (c *Client) find(b *binding[findFunc], name string) (int32, error) {
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return NoPoint, err
	}
	var status int32
	lid := fn(conn, name, &status)
	if err := codeError(status); err != nil {
		return NoPoint, err
	}
	return lid, nil
}

func (c *Client) findPair(b *binding[findPairFunc], idcs, zd string) (int32, error) {
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return NoPoint, err
	}
	var status int32
	lid := fn(conn, idcs, zd, &status)
	if err := codeError(status); err != nil {
		return NoPoint, err
	}
	return lid, nil
}

// HighestLID returns the highest local id in use.
func (c *Client) HighestLID() (int32, error) {
	return connInt(c, &c.fns.highestLID)
}

// PointCount returns the number of points known to the client.
func (c *Client) PointCount() (int32, error) {
	return connInt(c, &c.fns.pointCount)
}

// IsPointAlive reports whether lid refers to a point that has not been
// deleted on the server.
func (c *Client) IsPointAlive(lid int32) (bool, error) {
	return lidGet(c, &c.fns.isPointAlive, lid)
}

// PointQuality returns the quality of the point's current value.
func (c *Client) PointQuality(lid int32) (Quality, error) {
	q, err := lidGet(c, &c.fns.pointQuality, lid)
	return Quality(q), err
}

// PointSID returns the server id of the point.
func (c *Client) PointSID(lid int32) (int32, error) {
	return lidGet(c, &c.fns.pointSID, lid)
}

func (c *Client) PointIESS(lid int32) (string, error) {
	return lidGet(c, &c.fns.pointIESS, lid)
}

func (c *Client) PointZD(lid int32) (string, error) {
	return lidGet(c, &c.fns.pointZD, lid)
}

func (c *Client) PointIDCS(lid int32) (string, error) {
	return lidGet(c, &c.fns.pointIDCS, lid)
}

// PointDESC returns the point description.
func (c *Client) PointDESC(lid int32) (string, error) {
	return lidGet(c, &c.fns.pointDESC, lid)
}

// PointAUX returns the auxiliary description.
func (c *Client) PointAUX(lid int32) (string, error) {
	return lidGet(c, &c.fns.pointAUX, lid)
}

// PointRTString returns the record type as a string ("ANALOG", ...).
func (c *Client) PointRTString(lid int32) (string, error) {
	return lidGet(c, &c.fns.pointRTString, lid)
}

// PointAR returns the archiving mode.
func (c *Client) PointAR(lid int32) (ArchiveType, error) {
	ar, err := lidGet(c, &c.fns.pointAR, lid)
	return ArchiveType(ar), err
}

// PointRT returns the record type.
func (c *Client) PointRT(lid int32) (PointType, error) {
	rt, err := lidGet(c, &c.fns.pointRT, lid)
	return PointType(rt), err
}

// PointValue returns the current value formatted as a string, whatever the
// record type.
func (c *Client) PointValue(lid int32) (string, error) {
	return lidGet(c, &c.fns.pointValue, lid)
}

// PointSecGroups returns the security groups of the point.
func (c *Client) PointSecGroups(lid int32) (PointGroups, error) {
	return c.groups(&c.fns.pointSecGroups, lid)
}

// PointTechGroups returns the technological groups of the point.
func (c *Client) PointTechGroups(lid int32) (PointGroups, error) {
	return c.groups(&c.fns.pointTechGroups, lid)
}

func (c *Client) groups(b *binding[groupsFunc], lid int32) (PointGroups, error) {
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return nil, err
	}
	bits := make([]byte, GroupCount/8)
	if err := codeError(fn(conn, lid, &bits[0], int32(len(bits)))); err != nil {
		return nil, err
	}
	return groupsFromBitmap(bits), nil
}

// connInt calls a connection-wide getter.
func connInt(c *Client, b *binding[connIntFunc]) (int32, error) {
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return 0, err
	}
	var status int32
	v := fn(conn, &status)
	if err := codeError(status); err != nil {
		return 0, err
	}
	return v, nil
}

// lidGet calls a per-point getter.
func lidGet[T any](c *Client, b *binding[func(conn uintptr, lid int32, status *int32) T], lid int32) (T, error) {
	var zero T
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return zero, err
	}
	var status int32
	v := fn(conn, lid, &status)
	if err := codeError(status); err != nil {
		return zero, err
	}
	return v, nil
}
