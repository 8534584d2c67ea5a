package dispatcher

import (
	"context"
	"testing"
)

func TestProcessConfigurationJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantTitle string
		wantDS    int
		wantDHT   int
	}{
		{
			name:      "full document",
			body:      `{"Servus":{"Title":"Cellar","UPS":[{"Token":"u","Title":"APC"}],"Hosts":[{"Token":"h","HostName":"nas","Interval":60,"Retries":3}],"Relays":[{"Token":"r","PinNumber":17,"DefaultState":true,"Title":"Pump"}],"DS":[{"Token":"d","DeviceId":"28-01","TemperatureEdge":0.5,"Title":"Wine"}],"DHT":[{"Token":"x","PinNumber":4,"HumidityEdge":2,"TemperatureEdge":0.5,"Title":"Air"}]}}`,
			wantTitle: "Cellar",
			wantDS:    1,
			wantDHT:   1,
		},
		{
			name:      "null lists",
			body:      `{"Servus":{"Title":"Attic","UPS":null,"Hosts":null,"Relays":null,"DS":null}}`,
			wantTitle: "Attic",
		},
		{
			name:    "missing servus",
			body:    `{"Primus":{}}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			body:    `{"Servus":`,
			wantErr: true,
		},
		{
			name:    "ds without device id",
			body:    `{"Servus":{"Title":"x","DS":[{"Token":"d","Title":"Wine"}]}}`,
			wantErr: true,
		},
		{
			name:    "dht without token",
			body:    `{"Servus":{"Title":"x","DHT":[{"PinNumber":4,"Title":"Air"}]}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topology, err := ProcessConfigurationJSON(context.Background(), []byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if topology.Title != tt.wantTitle {
				t.Fatalf("expected title %q, got %q", tt.wantTitle, topology.Title)
			}
			if len(topology.DS) != tt.wantDS || len(topology.DHT) != tt.wantDHT {
				t.Fatalf("expected %d DS and %d DHT, got %d and %d", tt.wantDS, tt.wantDHT, len(topology.DS), len(topology.DHT))
			}
		})
	}
}

func TestSetupProcessorWithoutSink(t *testing.T) {
	err := SetupProcessor{}.ProcessConfiguration(context.Background(), []byte(`{"Servus":{"Title":"x"}}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
