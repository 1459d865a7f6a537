package seqjson

import (
	"fmt"
)

// Reader is a forward-only pull parser over a Sequence. Peek classifies the
// next token without consuming it; the Read methods consume the current token
// as a typed value and fail when it is of a different kind. Any error is
// final: the reader does not resynchronize.
type Reader struct {
	seq      Sequence           // 32 bytes
	buf      []byte             // 24 bytes (current segment)
	names    *NameTable[string] // 8 bytes (ptr)
	settings *Settings          // 8 bytes (ptr)
	base     int64              // 8 bytes (absolute offset of buf[0])
	seg      int                // 8 bytes
	pos      int                // 8 bytes
	line     int                // 8 bytes
	stack    containerStack
	spill    spill
	nameBuf  []byte

	token       Token
	peeked      bool
	expectComma bool // a value was completed inside a container
	pendingName bool // a property name was read, its value comes next
	done        bool // the root value is complete
}

// ReaderState is a snapshot of a Reader's position taken by State.
type ReaderState struct {
	stack       containerStack
	base        int64
	seg         int
	pos         int
	line        int
	token       Token
	peeked      bool
	expectComma bool
	pendingName bool
	done        bool
}

// NewReader returns a reader over seq. A nil settings uses DefaultSettings.
func NewReader(seq Sequence, settings *Settings) *Reader {
	r := &Reader{
		seq:      seq,
		settings: orDefault(settings),
		line:     1,
	}
	r.stack = newContainerStack(r.settings.maxDepth())
	if len(seq.segments) > 0 {
		r.buf = seq.segments[0]
	}
	return r
}

// NewBytesReader returns a reader over a single contiguous buffer.
func NewBytesReader(data []byte, settings *Settings) *Reader {
	return NewReader(NewSequence(data), settings)
}

func (r *Reader) Settings() *Settings { return r.settings }

// Depth returns the number of open containers.
func (r *Reader) Depth() int { return r.stack.depth() }

// Offset returns the absolute byte offset of the cursor.
func (r *Reader) Offset() int64 { return r.base + int64(r.pos) }

// Line returns the 1-based line of the cursor.
func (r *Reader) Line() int { return r.line }

// State captures the reader position so it can be restored with SetState.
func (r *Reader) State() ReaderState {
	return ReaderState{
		stack:       r.stack.clone(),
		base:        r.base,
		seg:         r.seg,
		pos:         r.pos,
		line:        r.line,
		token:       r.token,
		peeked:      r.peeked,
		expectComma: r.expectComma,
		pendingName: r.pendingName,
		done:        r.done,
	}
}

// SetState moves the reader back (or forward) to a captured position of the same sequence.
func (r *Reader) SetState(s ReaderState) {
	r.stack = s.stack.clone()
	r.base = s.base
	r.seg = s.seg
	r.pos = s.pos
	r.line = s.line
	r.token = s.token
	r.peeked = s.peeked
	r.expectComma = s.expectComma
	r.pendingName = s.pendingName
	r.done = s.done
	r.buf = nil
	if r.seg < len(r.seq.segments) {
		r.buf = r.seq.segments[r.seg]
	}
}

func (r *Reader) syntaxError(cause error, format string, args ...interface{}) error {
	return &SyntaxError{
		Msg:    fmt.Sprintf(format, args...),
		Offset: r.Offset(),
		Line:   r.line,
		err:    cause,
	}
}

func (r *Reader) unexpectedEnd() error {
	return r.syntaxError(ErrUnexpectedEnd, "unexpected end of JSON input")
}

func (r *Reader) mismatch(expected, found Token) error {
	if found == TokenNull {
		return &UnmarshalTypeError{
			Value:  "null",
			Msg:    fmt.Sprintf("unexpected null when trying to read %s", expected),
			Offset: r.Offset(),
		}
	}
	return &UnmarshalTypeError{
		Value:  found.String(),
		Msg:    fmt.Sprintf("found %s where %s was expected", found, expected),
		Offset: r.Offset(),
	}
}

// nextSegment moves the cursor to the start of the following segment.
func (r *Reader) nextSegment() bool {
	if r.seg+1 >= len(r.seq.segments) {
		return false
	}
	r.base += int64(len(r.buf))
	r.seg++
	r.buf = r.seq.segments[r.seg]
	r.pos = 0
	return true
}

// skipWhitespace moves to the next significant byte and reports whether one exists.
func (r *Reader) skipWhitespace() bool {
	for {
		for r.pos < len(r.buf) {
			switch r.buf[r.pos] {
			case ' ', '\t', '\r':
				r.pos++
			case '\n':
				r.pos++
				r.line++
			default:
				return true
			}
		}
		if !r.nextSegment() {
			return false
		}
	}
}

// Peek returns the next token without consuming it. At the end of a complete
// document it returns TokenNone.
func (r *Reader) Peek() (Token, error) {
	if r.peeked {
		return r.token, nil
	}

	if !r.skipWhitespace() {
		if r.stack.depth() > 0 || r.pendingName || !r.done {
			return TokenNone, r.unexpectedEnd()
		}
		return TokenNone, nil
	}
	if r.done {
		return TokenNone, r.syntaxError(nil, "additional text encountered after finished reading JSON content: %q", r.buf[r.pos])
	}

	c := r.buf[r.pos]
	var tok Token
	var err error
	if c == ',' {
		if !r.expectComma {
			return TokenNone, r.syntaxError(nil, "unexpected ','")
		}
		r.pos++
		r.expectComma = false
		if !r.skipWhitespace() {
			return TokenNone, r.unexpectedEnd()
		}
		c = r.buf[r.pos]
		if c == '}' || c == ']' {
			return TokenNone, r.syntaxError(nil, "trailing comma before %q", c)
		}
		if tok, err = r.classify(c); err != nil {
			return TokenNone, err
		}
	} else {
		if tok, err = r.classify(c); err != nil {
			return TokenNone, err
		}
		if r.expectComma && tok != TokenEndObject && tok != TokenEndArray {
			return TokenNone, r.syntaxError(ErrMissingComma, "invalid JSON: %s is missing comma before it", tok)
		}
	}

	if err := r.checkStructure(tok); err != nil {
		return TokenNone, err
	}

	r.token = tok
	r.peeked = true
	return tok, nil
}

func (r *Reader) classify(c byte) (Token, error) {
	switch c {
	case '{':
		return TokenStartObject, nil
	case '}':
		return TokenEndObject, nil
	case '[':
		return TokenStartArray, nil
	case ']':
		return TokenEndArray, nil
	case '"':
		if r.stack.inObject() && !r.pendingName {
			return TokenPropertyName, nil
		}
		return TokenString, nil
	case 't', 'f':
		return TokenBoolean, nil
	case 'n':
		return TokenNull, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return TokenNumber, nil
	}
	return TokenNone, r.syntaxError(nil, "unexpected character %q", c)
}

// checkStructure validates tok against the open containers.
func (r *Reader) checkStructure(tok Token) error {
	switch {
	case r.stack.inObject() && !r.pendingName:
		if tok != TokenPropertyName && tok != TokenEndObject {
			return r.syntaxError(nil, "found %s where a property name was expected", tok)
		}
	case r.stack.inObject():
		if !tok.isValue() {
			return r.syntaxError(nil, "found %s where the value of a property was expected", tok)
		}
	case r.stack.inArray():
		if !tok.isValue() && tok != TokenEndArray {
			return r.syntaxError(nil, "found %s inside an array", tok)
		}
	default:
		if !tok.isValue() {
			return r.syntaxError(nil, "found %s where a value was expected", tok)
		}
	}
	return nil
}

// expect peeks and checks the next token is want.
func (r *Reader) expect(want Token) error {
	tok, err := r.Peek()
	if err != nil {
		return err
	}
	if tok != want {
		return r.mismatch(want, tok)
	}
	return nil
}

// completeValue records that a value has been fully consumed.
func (r *Reader) completeValue() {
	if r.spill.pooled != nil {
		r.spill.reset()
	}
	r.peeked = false
	r.pendingName = false
	if r.stack.depth() > 0 {
		r.expectComma = true
	} else {
		r.done = true
	}
}

func (r *Reader) readStart(want Token) error {
	if err := r.expect(want); err != nil {
		return err
	}
	if !r.stack.push(want == TokenStartObject) {
		return r.syntaxError(ErrMaxDepth, "the reader's max depth of %d has been exceeded", r.stack.max)
	}
	r.pos++
	r.peeked = false
	r.pendingName = false
	r.expectComma = false
	return nil
}

func (r *Reader) readEnd(want Token) error {
	if err := r.expect(want); err != nil {
		return err
	}
	r.pos++
	r.stack.pop()
	r.completeValue()
	return nil
}

func (r *Reader) ReadStartObject() error { return r.readStart(TokenStartObject) }
func (r *Reader) ReadEndObject() error   { return r.readEnd(TokenEndObject) }
func (r *Reader) ReadStartArray() error  { return r.readStart(TokenStartArray) }
func (r *Reader) ReadEndArray() error    { return r.readEnd(TokenEndArray) }

// ReadPropertyName reads a property name and the ':' after it. Names are
// interned so repeated keys share one string, and are restored to their
// declared case for the active naming strategy.
func (r *Reader) ReadPropertyName() (string, error) {
	if err := r.expect(TokenPropertyName); err != nil {
		return "", err
	}
	raw, escapes, err := r.scanString(maxPropertyNameSize)
	if err != nil {
		return "", err
	}

	if r.names == nil {
		r.names = NewNameTable[string]()
	}
	name, ok := r.names.Find(raw)
	if !ok {
		text := string(raw)
		if escapes > 0 {
			text = string(unescapeAppend(nil, raw))
		}
		name = r.names.Add(raw, RestoreCase(text, r.settings.NamingStrategy))
	}
	r.spill.reset()

	return name, r.readColon()
}

// readPropertyFor reads a property name and resolves it in table without
// allocating. It returns nil for names the table does not know.
func (r *Reader) readPropertyFor(table *NameTable[*Property]) (*Property, error) {
	if err := r.expect(TokenPropertyName); err != nil {
		return nil, err
	}
	raw, escapes, err := r.scanString(maxPropertyNameSize)
	if err != nil {
		return nil, err
	}
	if escapes > 0 {
		r.nameBuf = unescapeAppend(r.nameBuf[:0], raw)
		raw = r.nameBuf
	}
	p, _ := table.Find(raw)
	r.spill.reset()

	return p, r.readColon()
}

// readMapKey reads a property name as a map key: unescaped, not interned
// and without case restoration.
func (r *Reader) readMapKey() (string, error) {
	if err := r.expect(TokenPropertyName); err != nil {
		return "", err
	}
	raw, escapes, err := r.scanString(maxPropertyNameSize)
	if err != nil {
		return "", err
	}
	var key string
	if escapes > 0 {
		r.nameBuf = unescapeAppend(r.nameBuf[:0], raw)
		key = string(r.nameBuf)
	} else {
		key = string(raw)
	}
	r.spill.reset()

	return key, r.readColon()
}

func (r *Reader) readColon() error {
	if !r.skipWhitespace() {
		return r.unexpectedEnd()
	}
	if r.buf[r.pos] != ':' {
		return r.syntaxError(nil, "expected ':' after property name, found %q", r.buf[r.pos])
	}
	r.pos++
	r.peeked = false
	r.pendingName = true
	r.expectComma = false
	return nil
}

// Skip consumes the current value, descending into containers. On a property
// name it skips the name and its value.
func (r *Reader) Skip() error {
	tok, err := r.Peek()
	if err != nil {
		return err
	}

	switch tok {
	case TokenPropertyName:
		if _, _, err := r.scanString(maxPropertyNameSize); err != nil {
			return err
		}
		r.spill.reset()
		if err := r.readColon(); err != nil {
			return err
		}
		return r.Skip()
	case TokenStartObject, TokenStartArray:
		depth := r.stack.depth()
		if err := r.readStart(tok); err != nil {
			return err
		}
		for r.stack.depth() > depth {
			if tok, err = r.Peek(); err != nil {
				return err
			}
			switch tok {
			case TokenStartObject, TokenStartArray:
				err = r.readStart(tok)
			case TokenEndObject, TokenEndArray:
				err = r.readEnd(tok)
			case TokenPropertyName:
				if _, _, err = r.scanString(maxPropertyNameSize); err == nil {
					r.spill.reset()
					err = r.readColon()
				}
			default:
				err = r.skipScalar(tok)
			}
			if err != nil {
				return err
			}
		}
		return nil
	case TokenNone, TokenEndObject, TokenEndArray:
		return r.syntaxError(nil, "cannot skip %s", tok)
	}
	return r.skipScalar(tok)
}

func (r *Reader) skipScalar(tok Token) error {
	switch tok {
	case TokenString:
		if _, _, err := r.scanString(r.settings.maxStringSize()); err != nil {
			return err
		}
		r.spill.reset()
	case TokenNumber:
		if _, err := r.readNumberLiteral(); err != nil {
			return err
		}
	case TokenBoolean:
		if _, err := r.ReadBool(); err != nil {
			return err
		}
		return nil
	case TokenNull:
		return r.ReadNull()
	}
	r.completeValue()
	return nil
}
