package storehttp

import "github.com/tinylib/msgp/msgp"

// EncodeMsg/DecodeMsg below are written by hand in the shape `msgp -o`
// normally generates: one array element per struct field, in declaration
// order. Field names never cross the wire — only position does — so
// renaming a Go field is free but reordering one is a breaking wire change.

func (m wireMetadata) EncodeMsg(en *msgp.Writer) error {
	if err := en.WriteArrayHeader(11); err != nil {
		return err
	}
	fields := []string{
		m.UserID, m.OrganizationID, m.ResourceID, m.RunID, m.SessionID,
		m.ThreadID, m.RequestID, m.Environment, m.Source, m.ServiceName, m.Scope,
	}
	for _, f := range fields {
		if err := en.WriteString(f); err != nil {
			return err
		}
	}
	return nil
}

func (m *wireMetadata) DecodeMsg(dc *msgp.Reader) error {
	n, err := dc.ReadArrayHeader()
	if err != nil {
		return err
	}
	vals := make([]string, n)
	for i := range vals {
		vals[i], err = dc.ReadString()
		if err != nil {
			return err
		}
	}
	if len(vals) > 0 {
		m.UserID = vals[0]
	}
	if len(vals) > 1 {
		m.OrganizationID = vals[1]
	}
	if len(vals) > 2 {
		m.ResourceID = vals[2]
	}
	if len(vals) > 3 {
		m.RunID = vals[3]
	}
	if len(vals) > 4 {
		m.SessionID = vals[4]
	}
	if len(vals) > 5 {
		m.ThreadID = vals[5]
	}
	if len(vals) > 6 {
		m.RequestID = vals[6]
	}
	if len(vals) > 7 {
		m.Environment = vals[7]
	}
	if len(vals) > 8 {
		m.Source = vals[8]
	}
	if len(vals) > 9 {
		m.ServiceName = vals[9]
	}
	if len(vals) > 10 {
		m.Scope = vals[10]
	}
	return nil
}

func (e wireError) EncodeMsg(en *msgp.Writer) error {
	if err := en.WriteArrayHeader(3); err != nil {
		return err
	}
	for _, f := range []string{e.Message, e.Type, e.Stack} {
		if err := en.WriteString(f); err != nil {
			return err
		}
	}
	return nil
}

func (e *wireError) DecodeMsg(dc *msgp.Reader) error {
	n, err := dc.ReadArrayHeader()
	if err != nil {
		return err
	}
	vals := make([]string, n)
	for i := range vals {
		vals[i], err = dc.ReadString()
		if err != nil {
			return err
		}
	}
	if len(vals) > 0 {
		e.Message = vals[0]
	}
	if len(vals) > 1 {
		e.Type = vals[1]
	}
	if len(vals) > 2 {
		e.Stack = vals[2]
	}
	return nil
}

func writeStringSlice(en *msgp.Writer, s []string) error {
	if err := en.WriteArrayHeader(uint32(len(s))); err != nil {
		return err
	}
	for _, v := range s {
		if err := en.WriteString(v); err != nil {
			return err
		}
	}
	return nil
}

func readStringSlice(dc *msgp.Reader) ([]string, error) {
	n, err := dc.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]string, n)
	for i := range out {
		out[i], err = dc.ReadString()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

const createWireFields = 14

func (c createWire) EncodeMsg(en *msgp.Writer) error {
	if err := en.WriteArrayHeader(createWireFields); err != nil {
		return err
	}
	if err := en.WriteString(c.TraceID); err != nil {
		return err
	}
	if err := en.WriteString(c.SpanID); err != nil {
		return err
	}
	if err := en.WriteString(c.ParentID); err != nil {
		return err
	}
	if err := en.WriteString(c.Name); err != nil {
		return err
	}
	if err := en.WriteString(c.Type); err != nil {
		return err
	}
	if err := en.WriteInt64(c.StartedAtUnixNano); err != nil {
		return err
	}
	if err := en.WriteInt64(c.EndedAtUnixNano); err != nil {
		return err
	}
	if err := en.WriteString(c.AttributesJSON); err != nil {
		return err
	}
	if err := c.Metadata.EncodeMsg(en); err != nil {
		return err
	}
	if err := writeStringSlice(en, c.Tags); err != nil {
		return err
	}
	if err := en.WriteString(c.InputJSON); err != nil {
		return err
	}
	if err := en.WriteString(c.OutputJSON); err != nil {
		return err
	}
	if err := c.Error.EncodeMsg(en); err != nil {
		return err
	}
	return en.WriteBool(c.IsEvent)
}

func (c *createWire) DecodeMsg(dc *msgp.Reader) error {
	if _, err := dc.ReadArrayHeader(); err != nil {
		return err
	}
	var err error
	if c.TraceID, err = dc.ReadString(); err != nil {
		return err
	}
	if c.SpanID, err = dc.ReadString(); err != nil {
		return err
	}
	if c.ParentID, err = dc.ReadString(); err != nil {
		return err
	}
	if c.Name, err = dc.ReadString(); err != nil {
		return err
	}
	if c.Type, err = dc.ReadString(); err != nil {
		return err
	}
	if c.StartedAtUnixNano, err = dc.ReadInt64(); err != nil {
		return err
	}
	if c.EndedAtUnixNano, err = dc.ReadInt64(); err != nil {
		return err
	}
	if c.AttributesJSON, err = dc.ReadString(); err != nil {
		return err
	}
	if err = c.Metadata.DecodeMsg(dc); err != nil {
		return err
	}
	if c.Tags, err = readStringSlice(dc); err != nil {
		return err
	}
	if c.InputJSON, err = dc.ReadString(); err != nil {
		return err
	}
	if c.OutputJSON, err = dc.ReadString(); err != nil {
		return err
	}
	if err = c.Error.DecodeMsg(dc); err != nil {
		return err
	}
	c.IsEvent, err = dc.ReadBool()
	return err
}

const updateWireFields = 14

func (u updateWire) EncodeMsg(en *msgp.Writer) error {
	if err := en.WriteArrayHeader(updateWireFields); err != nil {
		return err
	}
	if err := en.WriteString(u.TraceID); err != nil {
		return err
	}
	if err := en.WriteString(u.SpanID); err != nil {
		return err
	}
	if err := en.WriteInt(u.SequenceNumber); err != nil {
		return err
	}
	if err := en.WriteBool(u.NameSet); err != nil {
		return err
	}
	if err := en.WriteString(u.Name); err != nil {
		return err
	}
	if err := en.WriteBool(u.AttributesSet); err != nil {
		return err
	}
	if err := en.WriteString(u.AttributesJSON); err != nil {
		return err
	}
	if err := en.WriteBool(u.MetadataSet); err != nil {
		return err
	}
	if err := u.Metadata.EncodeMsg(en); err != nil {
		return err
	}
	if err := en.WriteString(u.InputJSON); err != nil {
		return err
	}
	if err := en.WriteString(u.OutputJSON); err != nil {
		return err
	}
	if err := u.Error.EncodeMsg(en); err != nil {
		return err
	}
	if err := en.WriteBool(u.EndedAtSet); err != nil {
		return err
	}
	return en.WriteInt64(u.EndedAtUnixNano)
}

func (u *updateWire) DecodeMsg(dc *msgp.Reader) error {
	if _, err := dc.ReadArrayHeader(); err != nil {
		return err
	}
	var err error
	if u.TraceID, err = dc.ReadString(); err != nil {
		return err
	}
	if u.SpanID, err = dc.ReadString(); err != nil {
		return err
	}
	if u.SequenceNumber, err = dc.ReadInt(); err != nil {
		return err
	}
	if u.NameSet, err = dc.ReadBool(); err != nil {
		return err
	}
	if u.Name, err = dc.ReadString(); err != nil {
		return err
	}
	if u.AttributesSet, err = dc.ReadBool(); err != nil {
		return err
	}
	if u.AttributesJSON, err = dc.ReadString(); err != nil {
		return err
	}
	if u.MetadataSet, err = dc.ReadBool(); err != nil {
		return err
	}
	if err = u.Metadata.DecodeMsg(dc); err != nil {
		return err
	}
	if u.InputJSON, err = dc.ReadString(); err != nil {
		return err
	}
	if u.OutputJSON, err = dc.ReadString(); err != nil {
		return err
	}
	if err = u.Error.DecodeMsg(dc); err != nil {
		return err
	}
	if u.EndedAtSet, err = dc.ReadBool(); err != nil {
		return err
	}
	u.EndedAtUnixNano, err = dc.ReadInt64()
	return err
}

func (b batchCreateWire) EncodeMsg(en *msgp.Writer) error {
	if err := en.WriteArrayHeader(2); err != nil {
		return err
	}
	if err := en.WriteString(b.BatchID); err != nil {
		return err
	}
	if err := en.WriteArrayHeader(uint32(len(b.Records))); err != nil {
		return err
	}
	for _, r := range b.Records {
		if err := r.EncodeMsg(en); err != nil {
			return err
		}
	}
	return nil
}

func (b *batchCreateWire) DecodeMsg(dc *msgp.Reader) error {
	if _, err := dc.ReadArrayHeader(); err != nil {
		return err
	}
	var err error
	if b.BatchID, err = dc.ReadString(); err != nil {
		return err
	}
	n, err := dc.ReadArrayHeader()
	if err != nil {
		return err
	}
	b.Records = make([]createWire, n)
	for i := range b.Records {
		if err := b.Records[i].DecodeMsg(dc); err != nil {
			return err
		}
	}
	return nil
}

func (b batchUpdateWire) EncodeMsg(en *msgp.Writer) error {
	if err := en.WriteArrayHeader(2); err != nil {
		return err
	}
	if err := en.WriteString(b.BatchID); err != nil {
		return err
	}
	if err := en.WriteArrayHeader(uint32(len(b.Records))); err != nil {
		return err
	}
	for _, r := range b.Records {
		if err := r.EncodeMsg(en); err != nil {
			return err
		}
	}
	return nil
}

func (b *batchUpdateWire) DecodeMsg(dc *msgp.Reader) error {
	if _, err := dc.ReadArrayHeader(); err != nil {
		return err
	}
	var err error
	if b.BatchID, err = dc.ReadString(); err != nil {
		return err
	}
	n, err := dc.ReadArrayHeader()
	if err != nil {
		return err
	}
	b.Records = make([]updateWire, n)
	for i := range b.Records {
		if err := b.Records[i].DecodeMsg(dc); err != nil {
			return err
		}
	}
	return nil
}
