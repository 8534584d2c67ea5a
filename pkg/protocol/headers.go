package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Builds or overwrites a header. Overwritten headers keep their position.
func (datagram *Datagram) Set(name string, value any) {
	var text string
	switch typed := value.(type) {
	case string:
		text = typed
	case []byte:
		text = string(typed)
	case bool:
		text = strconv.FormatBool(typed)
	case int:
		text = strconv.Itoa(typed)
	case int64:
		text = strconv.FormatInt(typed, 10)
	case uint:
		text = strconv.FormatUint(uint64(typed), 10)
	case uint16:
		text = strconv.FormatUint(uint64(typed), 10)
	case uint32:
		text = strconv.FormatUint(uint64(typed), 10)
	case uint64:
		text = strconv.FormatUint(typed, 10)
	case float64:
		text = strconv.FormatFloat(typed, 'f', -1, 64)
	case StatusCode:
		text = strconv.Itoa(int(typed))
	case fmt.Stringer:
		text = typed.String()
	default:
		text = fmt.Sprintf("%v", typed)
	}

	for index := range datagram.headers {
		if strings.EqualFold(datagram.headers[index].name, name) {
			datagram.headers[index].value = text
			return
		}
	}
	datagram.headers = append(datagram.headers, header{name: name, value: text})
}

// Reports presence of a header
func (datagram *Datagram) Has(name string) (present bool) {
	_, err := datagram.lookup(name)
	present = err == nil
	return
}

// Header names and values in insertion order
func (datagram *Datagram) Headers() (names []string, values []string) {
	for _, entry := range datagram.headers {
		names = append(names, entry.name)
		values = append(values, entry.value)
	}
	return
}

func (datagram *Datagram) lookup(name string) (value string, err error) {
	for _, entry := range datagram.headers {
		if strings.EqualFold(entry.name, name) {
			value = entry.value
			return
		}
	}
	err = ErrStatementNotFound
	return
}

func (datagram *Datagram) String(name string) (value string, err error) {
	value, err = datagram.lookup(name)
	return
}

func (datagram *Datagram) Int(name string) (value int64, err error) {
	raw, err := datagram.lookup(name)
	if err != nil {
		return
	}
	value, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrTypeMismatch, name, err)
	}
	return
}

func (datagram *Datagram) Uint(name string) (value uint64, err error) {
	raw, err := datagram.lookup(name)
	if err != nil {
		return
	}
	value, err = strconv.ParseUint(raw, 10, 64)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrTypeMismatch, name, err)
	}
	return
}

func (datagram *Datagram) Bool(name string) (value bool, err error) {
	raw, err := datagram.lookup(name)
	if err != nil {
		return
	}
	value, err = strconv.ParseBool(raw)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrTypeMismatch, name, err)
	}
	return
}

func (datagram *Datagram) Float(name string) (value float64, err error) {
	raw, err := datagram.lookup(name)
	if err != nil {
		return
	}
	value, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrTypeMismatch, name, err)
	}
	return
}
