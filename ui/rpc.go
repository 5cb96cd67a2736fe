package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/dhamidi/uniast/format"
	"github.com/dhamidi/uniast/grammar"
	"github.com/dhamidi/uniast/parser"
	"github.com/dhamidi/uniast/syntax"
)

// ASTServiceParseProcedure is the Connect path of ASTService.Parse.
const ASTServiceParseProcedure = "/uniast.v1.ASTService/Parse"

type ParseResponse struct {
	AST      *syntax.Program  `json:"ast"`
	Synopsis *syntax.Synopsis `json:"synopsis,omitempty"`
}

// RPCParseRequest is the Connect form of ParseRequest. Synopsis asks for a
// summary next to the tree.
type RPCParseRequest struct {
	ParseRequest
	Synopsis bool `json:"synopsis,omitempty"`
}

type ASTService struct {
	parser  *parser.Parser
	timeout time.Duration
}

// NewASTService returns the service; timeout bounds each parse and zero
// means no limit.
func NewASTService(p *parser.Parser, timeout time.Duration) *ASTService {
	return &ASTService{parser: p, timeout: timeout}
}

func (h *ASTService) Parse(
	ctx context.Context,
	req *connect.Request[RPCParseRequest],
) (*connect.Response[ParseResponse], error) {
	prog, err := h.parser.ParseWithTimeout(ctx, req.Msg.Code, req.Msg.LanguageID, h.timeout)
	if err != nil {
		if errors.Is(err, grammar.ErrUnsupportedLanguage) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		if errors.Is(err, parser.ErrTimeout) {
			return nil, connect.NewError(connect.CodeDeadlineExceeded, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &ParseResponse{AST: prog}
	if req.Msg.Synopsis {
		lang, _ := grammar.Lookup(req.Msg.LanguageID)
		resp.Synopsis = syntax.Summarize(lang.ID, prog)
	}
	return connect.NewResponse(resp), nil
}

// NewASTServiceHandler returns the path and handler to mount the service
// on a mux. Messages use plain JSON.
func NewASTServiceHandler(svc *ASTService, maxBytes int64) (string, http.Handler) {
	opts := []connect.HandlerOption{connect.WithCodec(jsonCodec{})}
	if maxBytes > 0 {
		opts = append(opts, connect.WithReadMaxBytes(int(maxBytes)))
	}
	return ASTServiceParseProcedure, connect.NewUnaryHandler(ASTServiceParseProcedure, svc.Parse, opts...)
}

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

// Marshal encodes like the HTTP endpoints, without HTML escaping.
func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := format.MarshalJSON(v, "")
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(data, []byte("\n")), nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
