package api

import "fmt"

// Validator реализуют payload-структуры, которые умеют проверять сами себя.
// Транспортный слой вызывает Validate сразу после json.Unmarshal.
type Validator interface {
	Validate() error
}

// ErrMissingField ошибка отсутствующего обязательного поля.
type ErrMissingField string

func (e ErrMissingField) Error() string {
	return fmt.Sprintf("missing required field %q", string(e))
}
