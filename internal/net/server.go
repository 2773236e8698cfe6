package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	. "vending/internal/common"
	"vending/internal/engine"
	"vending/internal/utils"
)

const (
	DefaultNWorkers    = 10
	DefaultConnTimeout = 30 * time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession contains relevant information pertaining to an individual
// connected TCP session.
type ClientSession struct {
	conn net.Conn
}

type Server struct {
	address string
	port    int
	timeout time.Duration
	machine *engine.Machine
	pool    *utils.WorkerPool
	cancel  context.CancelFunc

	clientSessions     map[string]ClientSession
	clientSessionsLock sync.Mutex

	ready    chan struct{}
	listener net.Listener

	// Some book keeping
	nSales  atomic.Uint64 // Track the number of committed sales.
	revenue atomic.Int64  // Track the cents taken by committed sales.
}

// New creates a server selling from machine. A zero number of workers or
// timeout falls back to the defaults.
func New(address string, port int, machine *engine.Machine, workers uint, timeout time.Duration) *Server {
	if workers == 0 {
		workers = DefaultNWorkers
	}
	if timeout <= 0 {
		timeout = DefaultConnTimeout
	}
	return &Server{
		address:        address,
		port:           port,
		timeout:        timeout,
		machine:        machine,
		pool:           utils.NewWorkerPool(workers),
		clientSessions: make(map[string]ClientSession),
		ready:          make(chan struct{}),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Ready is closed once Run has either started listening or failed to.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the listening address, or nil if the listener failed to start.
// Only valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run serves clients until ctx is cancelled or a worker fails.
func (s *Server) Run(ctx context.Context) error {
	// Setup a cancel on the context for future shutdown.
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.Shutdown()
	t, ctx := tomb.WithContext(ctx)

	// Start a tcp listener.
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", net.JoinHostPort(s.address, strconv.Itoa(s.port)))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		close(s.ready)
		return err
	}
	s.listener = listener
	close(s.ready)

	// Closing the listener is what unblocks Accept on shutdown.
	t.Go(func() error {
		<-t.Dying()
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
		return nil
	})

	// Start the worker pool.
	s.pool.Setup(t, s.handleConnection)

	log.Info().
		Str("address", listener.Addr().String()).
		Int("workers", s.pool.Size()).
		Msg("server running")

	// Start accepting connections.
	for {
		conn, err := listener.Accept()
		if err != nil {
			if !t.Alive() {
				break
			}
			log.Error().Err(err).Msg("error accepting client")
			continue
		}

		log.Info().
			Str("address", conn.RemoteAddr().String()).
			Msg("new client added")
		s.addClientSession(conn)

		// Pass over the connection to be served.
		if !s.pool.AddTask(t, conn) {
			s.closeClientSession(conn.RemoteAddr().String())
			break
		}
	}

	// Unblock workers sat on a read.
	t.Kill(nil)
	s.closeClientSessions()
	return t.Wait()
}

// ReportSale implements engine.Reporter.
func (s *Server) ReportSale(sale Sale) error {
	n := s.nSales.Add(1)
	revenue := s.revenue.Add(sale.Product.Price.Cents())
	log.Info().
		Str("uuid", sale.UUID).
		Uint64("sales", n).
		Int64("revenue_cents", revenue).
		Msg("sale reported")
	return nil
}

// Stats returns the number of sales and the revenue taken since start.
func (s *Server) Stats() (uint64, Money) {
	// Revenue only ever grows from zero, so it is never negative.
	revenue, _ := FromCents(uint64(s.revenue.Load()))
	return s.nSales.Load(), revenue
}

// Send writes a report to a connected client.
func (s *Server) Send(clientAddress string, report Report) error {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	client, ok := s.clientSessions[clientAddress]
	if !ok {
		return ErrClientDoesNotExist
	}

	buf, err := report.Serialize()
	if err != nil {
		return err
	}
	if err := WriteFrame(client.conn, buf); err != nil {
		delete(s.clientSessions, clientAddress)
		if closeErr := client.conn.Close(); closeErr != nil {
			log.Error().Str("address", clientAddress).Err(closeErr).Msg("unable to close connection")
		}
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

// handleConnection serves one client until it disconnects, goes idle for
// longer than the timeout, or the server dies. Each message is answered with
// exactly one report.
// Note, any error returned from here is fatal.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}
	address := conn.RemoteAddr().String()
	defer s.closeClientSession(address)

	for t.Alive() {
		// Set max idle timeout.
		if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
			log.Error().
				Str("address", address).
				Err(err).
				Msg("failed setting deadline for connection")
			return nil
		}

		frame, err := ReadFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || !t.Alive() {
				log.Info().Str("address", address).Msg("client disconnected")
			} else {
				log.Error().
					Err(err).
					Str("address", address).
					Msg("error reading from connection")
			}
			return nil
		}

		if err := s.Send(address, s.handleMessage(frame)); err != nil {
			log.Error().
				Err(err).
				Str("address", address).
				Msg("error writing report")
			return nil
		}
	}
	return nil
}

// handleMessage runs one client message against the machine.
func (s *Server) handleMessage(frame []byte) Report {
	message, err := ParseMessage(frame)
	if err != nil {
		return generateErrorReport(err)
	}

	switch m := message.(type) {
	case InsertCoinsMessage:
		if err := s.machine.InsertCoins(m.Coins...); err != nil {
			return generateErrorReport(err)
		}
		return generateAckReport(s.machine.Inserted())
	case SlotMessage:
		switch m.TypeOf {
		case SelectProduct:
			sale, err := s.machine.SelectProduct(int(m.Slot))
			if err != nil {
				return generateErrorReport(err)
			}
			report, err := generateSaleReport(sale)
			if err != nil {
				return generateErrorReport(err)
			}
			return report
		case QueryStock:
			units, err := s.machine.UnitsInStock(int(m.Slot))
			if err != nil {
				return generateErrorReport(err)
			}
			return generateStockReport(units)
		}
	case BaseMessage:
		switch m.TypeOf {
		case Heartbeat:
			return generateAckReport(s.machine.Inserted())
		case QueryCoins:
			return generateCoinReport(s.machine.CoinsInStock())
		}
	}
	return generateErrorReport(ErrInvalidMessageType)
}

// addClientSession is an atomic map add
func (s *Server) addClientSession(conn net.Conn) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	s.clientSessions[conn.RemoteAddr().String()] = ClientSession{
		conn: conn,
	}
}

// closeClientSession is an atomic map remove, closing the connection.
func (s *Server) closeClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	client, ok := s.clientSessions[address]
	if !ok {
		return
	}
	delete(s.clientSessions, address)
	if err := client.conn.Close(); err != nil {
		log.Error().Str("address", address).Err(err).Msg("unable to close connection")
	}
}

func (s *Server) closeClientSessions() {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	for address, client := range s.clientSessions {
		if err := client.conn.Close(); err != nil {
			log.Error().Str("address", address).Err(err).Msg("unable to close connection")
		}
	}
	clear(s.clientSessions)
}
