package seqjson

// Transcode copies the next value from r to w token by token. Property names
// and numbers are copied verbatim, so the output differs from the input only
// in whitespace.
func Transcode(w *Writer, r *Reader) error {
	depth := r.Depth()
	for {
		tok, err := r.Peek()
		if err != nil {
			return err
		}

		switch tok {
		case TokenNone:
			return r.unexpectedEnd()
		case TokenStartObject:
			if err = r.ReadStartObject(); err == nil {
				err = w.WriteStartObject()
			}
		case TokenEndObject:
			if err = r.ReadEndObject(); err == nil {
				err = w.WriteEndObject()
			}
		case TokenStartArray:
			if err = r.ReadStartArray(); err == nil {
				err = w.WriteStartArray()
			}
		case TokenEndArray:
			if err = r.ReadEndArray(); err == nil {
				err = w.WriteEndArray()
			}
		case TokenPropertyName:
			var name string
			if name, err = r.readMapKey(); err == nil {
				err = w.WritePropertyName(name)
			}
		case TokenString:
			var s string
			if s, err = r.ReadString(); err == nil {
				err = w.WriteString(s)
			}
		case TokenNumber:
			var n Number
			if n, err = r.ReadNumber(); err == nil {
				err = w.WriteNumber(n)
			}
		case TokenBoolean:
			var b bool
			if b, err = r.ReadBool(); err == nil {
				err = w.WriteBool(b)
			}
		case TokenNull:
			if err = r.ReadNull(); err == nil {
				err = w.WriteNull()
			}
		}
		if err != nil {
			return err
		}
		if r.Depth() == depth && tok != TokenPropertyName {
			return nil
		}
	}
}
