package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/domusgpt/synther-engine/src/audio"
	"golang.org/x/sync/errgroup"
)

var sockFileName = flag.String("sock", "/tmp/synther-engine.sock", "unix socket for IPC")
var presetDir = flag.String("presets", "presets", "preset directory")
var midiEnabled = flag.Bool("midi", true, "listen to MIDI input")

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine := audio.NewEngine()
	engine.SetPresetDir(*presetDir)
	defer engine.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()
	err := withIPCConnection(ctx, func(conn net.Conn) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return engine.Start(ctx)
		})
		g.Go(func() error {
			return receiveCommands(ctx, conn, engine.CommandCh)
		})
		g.Go(func() error {
			return sendReports(ctx, conn, engine)
		})
		if *midiEnabled {
			g.Go(func() error {
				return receiveMidi(ctx, engine)
			})
		}
		return g.Wait()
	})
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func withIPCConnection(ctx context.Context, f func(net.Conn) error) error {
	os.Remove(*sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", *sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(*sockFileName)
	}()
	log.Printf("start listening...\n")
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			return err
		}
		commandCh <- command
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(line, " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func receiveMidi(ctx context.Context, engine *audio.Engine) error {
	ch := audio.ListenToMidiIn(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("receiveMidi() interrupted")
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			engine.HandleMidiMessage(data)
		}
	}
}

func sendReports(ctx context.Context, conn net.Conn, engine *audio.Engine) error {
	t := time.NewTicker(time.Second / 30)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			snapshot := engine.Analyze()
			bytes, err := json.Marshal(&snapshot)
			if err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				log.Println("sendReports() interrupted")
				break loop
			default:
				conn.Write(append([]byte("analysis "), append(bytes, '\n')...))
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
