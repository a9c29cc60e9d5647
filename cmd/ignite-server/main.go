package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/google/uuid"
	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/pkg/ignite"
	"github.com/ignitedb/ignite/pkg/logger"
	"github.com/ignitedb/ignite/pkg/options"
	"github.com/ignitedb/ignite/pkg/pool"
	"go.uber.org/zap"
)

func main() {
	var (
		host       string
		port       int
		dataDir    string
		poolKind   string
		poolSize   int
		poolQueue  int
		devLogging bool
	)

	flag.StringVar(&host, "host", "0.0.0.0", "listen host")
	flag.IntVar(&port, "port", 4000, "listen port")
	flag.StringVar(&dataDir, "data-dir", options.DefaultDataDir, "storage directory")
	flag.StringVar(&poolKind, "thread-pool", "shared", "connection handler pool: none, naive, shared")
	flag.IntVar(&poolSize, "thread-pool-size", 4, "worker count for the shared pool")
	flag.IntVar(&poolQueue, "thread-pool-queue", 64, "queue size for the shared pool")
	flag.BoolVar(&devLogging, "dev", false, "enable human-readable development logging")
	flag.Parse()

	log, err := logger.New("ignite-server", logger.Config{Development: devLogging})
	if err != nil {
		fmt.Fprintln(os.Stderr, "building logger:", err)
		os.Exit(1)
	}

	inst, err := ignite.NewInstance(context.Background(), "ignite-server", nil, options.WithDataDir(dataDir))
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer inst.Close(context.Background())

	connPool := newConnectionPool(poolKind, poolSize, poolQueue, log)
	defer connPool.Close()

	addr := fmt.Sprintf("%s:%d", host, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalw("failed to listen", "addr", addr, "error", err)
	}
	log.Infow("ignite-server listening", "addr", addr, "pool", poolKind)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Warnw("accept failed", "error", err)
			continue
		}

		connID := uuid.NewString()
		if err := connPool.Spawn(func() {
			handleConnection(log, inst, connID, conn)
		}); err != nil {
			log.Warnw("dropping connection: pool rejected job", "connID", connID, "error", err)
			conn.Close()
		}
	}
}

func newConnectionPool(kind string, workers, queue int, log *zap.SugaredLogger) pool.ThreadPool {
	switch kind {
	case "none":
		return pool.NewNone()
	case "naive":
		return pool.NewNaive()
	default:
		return pool.NewShared(workers, queue, log)
	}
}

func handleConnection(log *zap.SugaredLogger, inst *ignite.Instance, connID string, conn net.Conn) {
	defer conn.Close()
	log.Infow("handling connection", "connID", connID, "remote", conn.RemoteAddr())

	reader := bufio.NewReader(conn)

	for {
		header, err := readRequestHeader(reader)
		if err != nil {
			log.Debugw("connection closed", "connID", connID, "error", err)
			return
		}
		if header.Version > protocolVersion {
			log.Warnw("unsupported request version", "connID", connID, "version", header.Version)
			return
		}

		body := make([]byte, header.BodySize)
		if _, err := io.ReadFull(reader, body); err != nil {
			log.Warnw("short read on request body", "connID", connID, "error", err)
			return
		}

		commands, err := decodeCommands(body, header.CommandCount)
		if err != nil {
			log.Warnw("malformed request body", "connID", connID, "error", err)
			return
		}

		responses, err := handleCommands(inst, commands)
		if err != nil {
			log.Warnw("error handling commands", "connID", connID, "error", err)
			return
		}

		respBody, err := encodeResponseBody(responses)
		if err != nil {
			log.Warnw("error encoding response", "connID", connID, "error", err)
			return
		}

		if err := writeResponseHeader(conn, responseHeader{
			Version:      protocolVersion,
			CommandCount: uint16(len(responses)),
			BodySize:     uint32(len(respBody)),
		}); err != nil {
			log.Warnw("error writing response header", "connID", connID, "error", err)
			return
		}
		if _, err := conn.Write(respBody); err != nil {
			log.Warnw("error writing response body", "connID", connID, "error", err)
			return
		}

		if header.KeepAlive == 0 {
			return
		}
	}
}

func handleCommands(inst *ignite.Instance, commands []record.Record) ([]responseCommand, error) {
	responses := make([]responseCommand, 0, len(commands))
	ctx := context.Background()

	for _, cmd := range commands {
		switch cmd.Kind {
		case record.KindSet:
			if err := inst.Set(ctx, cmd.Key, cmd.Value); err != nil {
				return nil, err
			}
			responses = append(responses, responseCommand{kind: record.KindSet})

		case record.KindGet:
			value, ok, err := inst.Get(ctx, cmd.Key)
			if err != nil {
				return nil, err
			}
			responses = append(responses, responseCommand{kind: record.KindGet, value: value, found: ok})

		case record.KindRemove:
			if _, err := inst.Delete(ctx, cmd.Key); err != nil {
				return nil, err
			}
			responses = append(responses, responseCommand{kind: record.KindRemove})

		case record.KindReset:
			if err := inst.Reset(ctx); err != nil {
				return nil, err
			}
			responses = append(responses, responseCommand{kind: record.KindReset})
		}
	}

	return responses, nil
}

