// Package pdftest builds small single-font PDF documents for tests.
package pdftest

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"fmt"
	"strings"
)

// Placement selects the operator used to position each line of text.
type Placement int

const (
	// Absolute sets a fresh text matrix (Tm) for every line.
	Absolute Placement = iota
	// Relative moves down from the previous line with "0 -14 Td", the way
	// most statement generators write running text.
	Relative
)

const (
	leftMargin = 40
	topLine    = 760
	leading    = 14
)

// Options control how Build lays out and protects the document.
type Options struct {
	Placement Placement
	// Password, when set, encrypts the document with the standard security
	// handler (revision 3, 128-bit RC4) using it as the user password.
	Password string
}

// passwordPad is the padding string from the standard security handler.
var passwordPad = []byte{
	0x28, 0xbf, 0x4e, 0x5e, 0x4e, 0x75, 0x8a, 0x41, 0x64, 0x00, 0x4e, 0x56, 0xff, 0xfa, 0x01, 0x08,
	0x2e, 0x2e, 0x00, 0xb6, 0xd0, 0x68, 0x3e, 0x80, 0x2f, 0x0c, 0xa9, 0xfe, 0x64, 0x53, 0x69, 0x7a,
}

// Build returns a PDF with one page per entry of pages, each line drawn in
// Helvetica. Lines must be representable in WinAnsiEncoding.
func Build(pages [][]string, opts Options) []byte {
	b := &builder{}
	b.buf.WriteString("%PDF-1.4\n")

	var enc *security
	if opts.Password != "" {
		enc = newSecurity(opts.Password)
		b.key = enc.key
	}

	// 1 catalog, 2 page tree, 3 font, then a page and its content per page.
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	b.object("<< /Type /Catalog /Pages 2 0 R >>")
	b.object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	b.object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, lines := range pages {
		b.object(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		b.stream(content(lines, opts.Placement))
	}

	xref := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.offsets)+1)
	for _, off := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R", len(b.offsets)+1)
	if enc != nil {
		fmt.Fprintf(&b.buf, " /Encrypt << /Filter /Standard /V 2 /R 3 /Length 128 /P %d /O <%x> /U <%x> >> /ID [<%x> <%x>]",
			enc.p, enc.owner, enc.user, enc.id, enc.id)
	}
	fmt.Fprintf(&b.buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return b.buf.Bytes()
}

func content(lines []string, placement Placement) string {
	var s strings.Builder
	s.WriteString("BT\n/F1 10 Tf\n")
	for i, line := range lines {
		switch {
		case placement == Absolute:
			fmt.Fprintf(&s, "1 0 0 1 %d %d Tm\n", leftMargin, topLine-leading*i)
		case i == 0:
			fmt.Fprintf(&s, "%d %d Td\n", leftMargin, topLine)
		default:
			fmt.Fprintf(&s, "0 -%d Td\n", leading)
		}
		fmt.Fprintf(&s, "(%s) Tj\n", escape(line))
	}
	s.WriteString("ET\n")
	return s.String()
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}

type builder struct {
	buf     bytes.Buffer
	offsets []int
	key     []byte
}

// object writes the next numbered object and returns its number.
func (b *builder) object(body string) int {
	b.offsets = append(b.offsets, b.buf.Len())
	id := len(b.offsets)
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", id, body)
	return id
}

func (b *builder) stream(data string) int {
	id := len(b.offsets) + 1
	raw := []byte(data)
	if b.key != nil {
		c, _ := rc4.NewCipher(objectKey(b.key, id))
		c.XORKeyStream(raw, raw)
	}
	b.offsets = append(b.offsets, b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Length %d >>\nstream\n", id, len(raw))
	b.buf.Write(raw)
	b.buf.WriteString("\nendstream\nendobj\n")
	return id
}

// security holds the encryption dictionary values for one document.
type security struct {
	key   []byte
	owner []byte
	user  []byte
	id    []byte
	p     int32
}

func newSecurity(password string) *security {
	s := &security{p: -4}
	sum := md5.Sum([]byte("upi-statement-converter fixture"))
	s.id = sum[:]
	padded := pad(password)

	// Owner entry, with the owner password equal to the user password.
	ownerKey := md5.Sum(padded)
	for i := 0; i < 50; i++ {
		ownerKey = md5.Sum(ownerKey[:])
	}
	s.owner = rc4Rounds(ownerKey[:], padded)

	// File key.
	p := uint32(s.p)
	h := md5.New()
	h.Write(padded)
	h.Write(s.owner)
	h.Write([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
	h.Write(s.id)
	key := h.Sum(nil)
	for i := 0; i < 50; i++ {
		next := md5.Sum(key)
		key = next[:]
	}
	s.key = key

	// User entry: 16 checked bytes and 16 bytes of filler.
	h.Reset()
	h.Write(passwordPad)
	h.Write(s.id)
	s.user = append(rc4Rounds(key, h.Sum(nil)), make([]byte, 16)...)
	return s
}

func pad(password string) []byte {
	out := append([]byte(password), passwordPad...)
	return out[:32]
}

// rc4Rounds encrypts data with key and then with key XOR 1 through 19.
func rc4Rounds(key, data []byte) []byte {
	out := append([]byte(nil), data...)
	k := make([]byte, len(key))
	for i := 0; i <= 19; i++ {
		for j := range key {
			k[j] = key[j] ^ byte(i)
		}
		c, _ := rc4.NewCipher(k)
		c.XORKeyStream(out, out)
	}
	return out
}

func objectKey(key []byte, id int) []byte {
	h := md5.New()
	h.Write(key)
	h.Write([]byte{byte(id), byte(id >> 8), byte(id >> 16), 0, 0})
	return h.Sum(nil)
}
