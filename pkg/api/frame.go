package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// EOT разделитель сообщений на сыром сокетном транспорте.
// Каждое сообщение - JSON, завершенный этим байтом, так что частичные
// чтения можно безопасно буферизовать и склеивать.
const EOT byte = 0x04

// Framer читает EOT-фреймированные сообщения из потока.
type Framer struct {
	r *bufio.Reader
}

func NewFramer(r io.Reader) *Framer {
	return &Framer{r: bufio.NewReader(r)}
}

// ReadMessage блокируется до полного фрейма и декодирует его.
func (f *Framer) ReadMessage() (Message, error) {
	raw, err := f.r.ReadBytes(EOT)
	if err != nil {
		return Message{}, err
	}
	raw = raw[:len(raw)-1] // срезаем EOT

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("malformed frame: %w", err)
	}
	return msg, nil
}

// WriteMessage пишет одно EOT-фреймированное сообщение.
func WriteMessage(w io.Writer, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	_, err = w.Write([]byte{EOT})
	return err
}
