package aviso

import (
	"fmt"
	"servus/pkg/protocol"
	"strconv"
	"time"
)

// Reading of a sensor identified by its Primus token
type reading struct {
	Base
	Token string
	Value float64
	field string
}

func newReading(kind Type, token string, value float64, field string) (new reading) {
	new = reading{
		Base:  newBase(kind, time.Time{}),
		Token: token,
		Value: value,
		field: field,
	}
	return
}

func (r *reading) Prepare(datagram *protocol.Datagram) {
	r.prepare(datagram)
	datagram.Set(protocol.HeaderToken, r.Token)
	datagram.Set(r.field, strconv.FormatFloat(r.Value, 'f', 2, 64))
}

func (r *reading) Payload() (payload []byte) {
	return
}

func (r *reading) Summary() (text string) {
	text = fmt.Sprintf("%s of %s: %.2f", r.field, r.Token, r.Value)
	return
}

// Temperature change of a 1-Wire DS18B20 sensor
type DSTemperature struct {
	reading
}

func NewDSTemperature(token string, temperature float64) (new *DSTemperature) {
	new = &DSTemperature{newReading(TypeDSTemperature, token, temperature, protocol.HeaderTemperature)}
	return
}

// Humidity change of a DHT sensor
type DHTHumidity struct {
	reading
}

func NewDHTHumidity(token string, humidity float64) (new *DHTHumidity) {
	new = &DHTHumidity{newReading(TypeDHTHumidity, token, humidity, protocol.HeaderHumidity)}
	return
}

// Temperature change of a DHT sensor
type DHTTemperature struct {
	reading
}

func NewDHTTemperature(token string, temperature float64) (new *DHTTemperature) {
	new = &DHTTemperature{newReading(TypeDHTTemperature, token, temperature, protocol.HeaderTemperature)}
	return
}
