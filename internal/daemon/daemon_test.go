package daemon

import (
	"context"
	"net"
	"servus/internal/dispatcher"
	"servus/internal/fabulatorium"
	"servus/internal/global"
	"servus/internal/logctx"
	"servus/pkg/protocol"
	"strconv"
	"testing"
	"time"
)

const setupBody = `{"Servus": {"Title": "Cellar", "UPS": null, "Hosts": null, "Relays": null, "DS": null, "DHT": null}}`

// Reads one complete datagram from conn, keeping anything beyond it
func readDatagram(conn net.Conn, leftover *[]byte) (datagram *protocol.Datagram, err error) {
	datagram = protocol.New(0)
	if len(*leftover) > 0 {
		err = datagram.Push(*leftover)
		*leftover = nil
		if err != nil {
			return
		}
	}

	buf := make([]byte, 4096)
	for !datagram.DatagramComplete() {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		n, readErr := conn.Read(buf)
		if n > 0 {
			err = datagram.Push(buf[:n])
			if err != nil {
				return
			}
		}
		if readErr != nil && !datagram.DatagramComplete() {
			err = readErr
			return
		}
	}
	*leftover = datagram.Remainder()
	return
}

// Minimal Primus accepting everything and forwarding fabula bodies
func startPrimus(t *testing.T) (port int, fabulas chan string) {
	t.Helper()
	fabulas = make(chan string, 10)

	socket, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { socket.Close() })

	go func() {
		for {
			conn, err := socket.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				var leftover []byte
				for {
					request, err := readDatagram(conn, &leftover)
					if err != nil {
						return
					}

					response := protocol.New(0)
					cseq, _ := request.Int(protocol.HeaderCSeq)
					response.Set(protocol.HeaderCSeq, cseq)
					status := protocol.StatusOK

					switch request.Method() {
					case protocol.MethodSetup:
						response.SetBody([]byte(setupBody))
					case protocol.MethodPlay, protocol.MethodNeutrino:
						response.Set(protocol.HeaderNeutrinoInterval, 200)
					case protocol.MethodFabula:
						id, _ := request.Uint(protocol.HeaderAvisoID)
						response.Set(protocol.HeaderAvisoID, id)
						response.Set(protocol.HeaderNeutrinoInterval, 200)
						status = protocol.StatusCreated
						fabulas <- string(request.Body())
					}
					conn.Write(response.GenerateResponse(status))
				}
			}()
		}
	}()

	port = socket.Addr().(*net.TCPAddr).Port
	return
}

func freePort(t *testing.T) (port int) {
	t.Helper()
	socket, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port = socket.Addr().(*net.TCPAddr).Port
	socket.Close()
	return
}

func waitFor(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestDaemonRelaysFabulaToPrimus(t *testing.T) {
	primusPort, fabulas := startPrimus(t)
	listenPort := freePort(t)

	cfg := Config{
		Primus: dispatcher.Config{
			Address:           "127.0.0.1",
			Port:              primusPort,
			Authenticator:     "secret",
			ReconnectInterval: 100 * time.Millisecond,
			WaitForResponse:   time.Second,
		},
		Listeners: []fabulatorium.Config{
			{Name: "local", Interface: "127.0.0.1", Port: listenPort},
		},
		Fabulators: []fabulatorium.Fabulator{{Name: "backup", DefaultSeverity: 2}},
	}

	globalCtx := logctx.New(context.Background(), global.NSTest, global.VerbosityNone, nil)
	servus := NewDaemon(cfg, "")
	if err := servus.Start(globalCtx); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	stopped := false
	t.Cleanup(func() {
		if !stopped {
			servus.Shutdown()
		}
	})

	waitFor(t, "setup from primus", func() bool { return servus.Report().SystemTitle == "Cellar" })

	var conn net.Conn
	waitFor(t, "fabulatorium listener", func() bool {
		var err error
		conn, err = net.DialTimeout("tcp", "127.0.0.1:"+strconv.Itoa(listenPort), time.Second)
		return err == nil
	})
	defer conn.Close()

	request := protocol.New(0)
	request.Set(protocol.HeaderCSeq, 1)
	request.Set(protocol.HeaderTimestamp, "1528600000.000000")
	request.Set(protocol.HeaderOriginator, "backup")
	request.SetBody([]byte("backup finished"))
	if _, err := conn.Write(request.GenerateRequest(protocol.MethodFabula, "rtsp://servus")); err != nil {
		t.Fatalf("failed sending fabula: %v", err)
	}

	var leftover []byte
	response, err := readDatagram(conn, &leftover)
	if err != nil {
		t.Fatalf("failed reading fabulatorium response: %v", err)
	}
	if response.StatusCode() != protocol.StatusCreated {
		t.Fatalf("expected 201 from fabulatorium, got %d %s", response.StatusCode(), response.Reason())
	}

	select {
	case body := <-fabulas:
		if body != "backup finished" {
			t.Fatalf("expected relayed fabula body, got %q", body)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("primus never received the fabula")
	}

	waitFor(t, "acknowledged aviso", func() bool { return servus.Queue.Len() == 0 })

	report := servus.Report()
	if !report.SetupDone || report.Communicator != dispatcher.StatePlaying.String() {
		t.Fatalf("expected playing session after setup, got %+v", report)
	}
	if len(report.Listeners) != 1 || report.Listeners[0].ReceivedFabulas != 1 {
		t.Fatalf("expected one received fabula in listener stats, got %+v", report.Listeners)
	}
	if report.Topology == nil || report.Topology.Title != "Cellar" {
		t.Fatalf("expected topology in report, got %+v", report.Topology)
	}

	servus.Shutdown()
	stopped = true

	if _, err := net.DialTimeout("tcp", "127.0.0.1:"+strconv.Itoa(listenPort), 200*time.Millisecond); err == nil {
		t.Fatalf("expected listener to be closed after shutdown")
	}
}

func TestApplyTopology(t *testing.T) {
	servus := NewDaemon(Config{}, "")
	ctx := context.Background()

	err := servus.ApplyTopology(ctx, dispatcher.Topology{
		Title: "Attic",
		DS:    []dispatcher.DSProbe{{Token: "t1", DeviceID: "28-000001", Title: "Roof"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if servus.Topology().Title != "Attic" {
		t.Fatalf("expected title Attic, got %q", servus.Topology().Title)
	}
	if servus.Report().SystemTitle != "Attic" {
		t.Fatalf("expected report title Attic, got %q", servus.Report().SystemTitle)
	}
}

func TestReloadFabulators(t *testing.T) {
	path := writeConfig(t, `{"primus": {"address": "p"}, "fabulatorium": {"fabulators": [{"name": "cron", "defaultSeverity": 5}]}}`)

	servus := NewDaemon(Config{}, path)
	servus.Fabulators = fabulatorium.NewRegistry(context.Background(), nil)

	if err := servus.Reload(context.Background()); err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}
	fabulator, known := servus.Fabulators.Lookup("cron")
	if !known || fabulator.DefaultSeverity != 5 {
		t.Fatalf("expected cron with severity 5 after reload, got %+v known=%v", fabulator, known)
	}

	withoutFile := NewDaemon(Config{}, "")
	if err := withoutFile.Reload(context.Background()); err == nil {
		t.Fatalf("expected reload error without configuration file")
	}
}

func TestNewDaemonHasNoContextBeforeStart(t *testing.T) {
	servus := NewDaemon(Config{}, "")
	if servus.ctx != nil || servus.cancel != nil {
		t.Fatalf("expected daemon context to be created by Start only")
	}

	// Shutdown of a daemon that never started does nothing
	servus.Shutdown()
}
