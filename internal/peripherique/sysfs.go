package peripherique

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Length of a 1-Wire slave directory name such as 28-0000075a2b3c
const w1DeviceIDLength = 15

// Reads DS18B20/DS18S20 probes through the w1-therm kernel driver
type W1Reader struct {
	DevicePath string // usually /sys/bus/w1/devices
}

// Parses <DevicePath>/<id>/w1_slave: first line must end in YES, the second carries t=<millidegrees>
func (reader W1Reader) ReadTemperature(ctx context.Context, deviceID string) (celsius float64, err error) {
	raw, err := os.ReadFile(filepath.Join(reader.DevicePath, deviceID, "w1_slave"))
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%w: %s", ErrNoDevice, deviceID)
			return
		}
		err = fmt.Errorf("failed reading %s: %v", deviceID, err)
		return
	}

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) < 2 {
		err = fmt.Errorf("unexpected w1_slave content for %s", deviceID)
		return
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		err = fmt.Errorf("%w: %s", ErrCRC, deviceID)
		return
	}

	marker := strings.LastIndex(lines[1], "t=")
	if marker < 0 {
		err = fmt.Errorf("no temperature field for %s", deviceID)
		return
	}
	milli, err := strconv.ParseInt(strings.TrimSpace(lines[1][marker+2:]), 10, 64)
	if err != nil {
		err = fmt.Errorf("invalid temperature for %s: %v", deviceID, err)
		return
	}
	celsius = float64(milli) / 1000
	return
}

// Slave ids currently present on the bus
func (reader W1Reader) Discover() (deviceIDs []string, err error) {
	entries, err := os.ReadDir(reader.DevicePath)
	if err != nil {
		err = fmt.Errorf("cannot get access to '%s': %v", reader.DevicePath, err)
		return
	}
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		if len(entry.Name()) != w1DeviceIDLength {
			continue
		}
		deviceIDs = append(deviceIDs, entry.Name())
	}
	return
}

// Reads DHT11/DHT22 sensors bound to the dht11 IIO kernel driver
type IIOReader struct {
	DevicePath string // usually /sys/bus/iio/devices
}

// Locates the iio device whose name is dht11@<pin in hex>
func (reader IIOReader) devicePath(pin int) (path string, err error) {
	entries, err := os.ReadDir(reader.DevicePath)
	if err != nil {
		err = fmt.Errorf("cannot get access to '%s': %v", reader.DevicePath, err)
		return
	}

	want := []byte(fmt.Sprintf("@%x", pin))
	for _, entry := range entries {
		candidate := filepath.Join(reader.DevicePath, entry.Name())
		name, readErr := os.ReadFile(filepath.Join(candidate, "name"))
		if readErr != nil {
			continue
		}
		if bytes.HasSuffix(bytes.TrimSpace(name), want) {
			path = candidate
			return
		}
	}
	err = fmt.Errorf("%w: dht on gpio %d", ErrNoDevice, pin)
	return
}

func (reader IIOReader) ReadHumidity(ctx context.Context, pin int) (humidity float64, celsius float64, err error) {
	path, err := reader.devicePath(pin)
	if err != nil {
		return
	}

	milliHumidity, err := readMilli(filepath.Join(path, "in_humidityrelative_input"))
	if err != nil {
		return
	}
	milliCelsius, err := readMilli(filepath.Join(path, "in_temp_input"))
	if err != nil {
		return
	}
	humidity = float64(milliHumidity) / 1000
	celsius = float64(milliCelsius) / 1000
	return
}

func readMilli(path string) (value int64, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed reading %s: %v", filepath.Base(path), err)
		return
	}
	value, err = strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		err = fmt.Errorf("invalid value in %s: %v", filepath.Base(path), err)
	}
	return
}
