// Package testserver is a fake Zabbix JSON-RPC endpoint for tests.
package testserver

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
)

// AuthConfig lists the credentials the fake server accepts.
type AuthConfig struct {
	Username    string
	Password    string
	BearerToken string
}

// ValidateAuthConfig rejects configurations that could never authenticate.
func ValidateAuthConfig(cfg AuthConfig) error {
	if cfg.Username == "" && cfg.Password == "" && cfg.BearerToken == "" {
		return fmt.Errorf("no auth configured")
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		return fmt.Errorf("password auth requires both user and pass")
	}
	return nil
}

// Call is one request received by the server.
type Call struct {
	Method        string
	Authorization string
	Params        map[string]any
}

// RPCError mirrors the JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Server records calls and answers like a Zabbix frontend.
type Server struct {
	*httptest.Server

	// SessionID is returned by user.login.
	SessionID string
	// Failures maps a substring of an imported source to the error returned for it.
	Failures map[string]RPCError

	cfg   AuthConfig
	mu    sync.Mutex
	calls []Call
}

// New starts a fake server. Close it when done.
func New(cfg AuthConfig) (*Server, error) {
	if err := ValidateAuthConfig(cfg); err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, SessionID: "0424bd59b807674191e7d77572075f33", Failures: map[string]RPCError{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s, nil
}

// Endpoint returns the URL of the JSON-RPC endpoint.
func (s *Server) Endpoint() string {
	return s.URL + "/api_jsonrpc.php"
}

// Calls returns a copy of every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Methods returns the method names received, in order.
func (s *Server) Methods() []string {
	var out []string
	for _, c := range s.Calls() {
		out = append(out, c.Method)
	}
	return out
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      int             `json:"id"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
	ID      int       `json:"id"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api_jsonrpc.php" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	params := map[string]any{}
	_ = json.Unmarshal(req.Params, &params)

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: req.Method, Authorization: r.Header.Get("Authorization"), Params: params})
	s.mu.Unlock()

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "user.login":
		user, _ := params["username"].(string)
		pass, _ := params["password"].(string)
		if s.cfg.Username != "" && secureEqual(user, s.cfg.Username) && secureEqual(pass, s.cfg.Password) {
			resp.Result = s.SessionID
		} else {
			resp.Error = &RPCError{Code: -32602, Message: "Invalid params.", Data: "Incorrect user name or password or account is temporarily blocked."}
		}
	case "user.logout":
		if s.authorized(r) {
			resp.Result = true
		} else {
			resp.Error = notAuthorized()
		}
	case "configuration.import":
		if !s.authorized(r) {
			resp.Error = notAuthorized()
			break
		}
		source, _ := params["source"].(string)
		resp.Result = true
		for needle, rpcErr := range s.Failures {
			if strings.Contains(source, needle) {
				e := rpcErr
				resp.Result = nil
				resp.Error = &e
				break
			}
		}
	default:
		resp.Error = &RPCError{Code: -32601, Message: "Method not found.", Data: "Incorrect API \"" + req.Method + "\"."}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func notAuthorized() *RPCError {
	return &RPCError{Code: -32602, Message: "Invalid params.", Data: "Not authorized."}
}

func (s *Server) authorized(r *http.Request) bool {
	authz := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return false
	}
	token := strings.TrimPrefix(authz, prefix)
	if s.cfg.BearerToken != "" && secureEqual(token, s.cfg.BearerToken) {
		return true
	}
	return s.cfg.Username != "" && secureEqual(token, s.SessionID)
}

func secureEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
