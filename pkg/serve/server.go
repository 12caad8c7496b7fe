// Package serve exposes the scanner to editors and browsers: an HTTP API
// with a websocket event feed, and a line-delimited JSON protocol on stdio.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/praetorian-inc/testweave/pkg/scanner"
)

// Version is the server protocol version
const Version = "1.0.0"

// Server manages the streaming NDJSON protocol
type Server struct {
	state   *State
	ctx     context.Context
	encoder *json.Encoder
	decoder *json.Decoder
}

// NewServer creates a new streaming server
func NewServer(state *State, in io.Reader, out io.Writer) *Server {
	return &Server{
		state:   state,
		ctx:     context.Background(),
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	s.ctx = ctx

	// Send ready signal
	s.sendReady()

	// Use buffered channels for incoming requests
	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until stdin closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	switch req.Type {
	case "extract":
		s.handleExtract(req.Payload)
	case "validate":
		s.handleValidate(req.Payload)
	case "scan":
		s.handleScan(req.Payload)
	case "scan_content":
		s.handleScanContent(req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	s.send("ready", ReadyData{Version: Version, Workspace: s.state.Workspace()})
}

func (s *Server) handleExtract(payload json.RawMessage) {
	var p ExtractPayload
	if err := decodePayload(payload, &p); err != nil {
		s.sendError("extract", err.Error())
		return
	}
	s.send("extract", Extract(p.Text))
}

func (s *Server) handleValidate(payload json.RawMessage) {
	var p ValidatePayload
	if err := decodePayload(payload, &p); err != nil {
		s.sendError("validate", err.Error())
		return
	}
	s.send("validate", Validate(p.IDs))
}

func (s *Server) handleScan(payload json.RawMessage) {
	var p ScanPayload
	if err := decodePayload(payload, &p); err != nil {
		s.sendError("scan", err.Error())
		return
	}

	result, err := s.state.Scan(s.ctx, p.Globs)
	if err != nil {
		s.sendError("scan", err.Error())
		return
	}
	s.send("scan", ScanResponse{Workspace: result.Workspace, Result: result})
}

func (s *Server) handleScanContent(payload json.RawMessage) {
	var p ContentPayload
	if err := decodePayload(payload, &p); err != nil {
		s.sendError("scan_content", err.Error())
		return
	}

	cfg, err := s.state.Config()
	if err != nil {
		s.sendError("scan_content", err.Error())
		return
	}
	core := scanner.NewCore(scanner.Options{Headings: cfg.Headings, Logger: s.state.logger})
	result, err := core.ScanContent(s.ctx, p.Items)
	if err != nil {
		s.sendError("scan_content", err.Error())
		return
	}
	s.send("scan_content", result)
}

func (s *Server) send(reqType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(reqType, err.Error())
		return
	}
	s.encoder.Encode(Response{
		Success: true,
		Type:    reqType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}

// decodePayload unmarshals payload into v. A missing payload leaves v
// untouched.
func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}
