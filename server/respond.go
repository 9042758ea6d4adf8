package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/angi-lang/angi/builtins"
	"github.com/angi-lang/angi/errz"
	"github.com/angi-lang/angi/object"
)

func (s *Server) handle(route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch handler := route.Handler.(type) {
		case *object.String:
			writeBody(w, "text/plain; charset=utf-8", []byte(handler.Value()))
		case *object.Function:
			result, err := s.evaluate(handler)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			if err := s.respond(w, r, result); err != nil {
				s.fail(w, r, err)
			}
		}
	}
}

// respond writes the response described by a handler table.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, result object.Object) error {
	if str, ok := result.(*object.String); ok {
		writeBody(w, "text/plain; charset=utf-8", []byte(str.Value()))
		return nil
	}
	table, err := object.AsTable(result)
	if err != nil {
		return err
	}
	kind, err := field[string](table, "type")
	if err != nil {
		return err
	}
	switch kind {
	case builtins.KindHTML:
		content, err := field[string](table, "html")
		if err != nil {
			return err
		}
		writeBody(w, "text/html; charset=utf-8", []byte(content))
	case builtins.KindHTMLTemplate:
		name, err := field[string](table, "path")
		if err != nil {
			return err
		}
		tmpl, err := s.templates.get(name)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, table.Interface()); err != nil {
			return err
		}
		writeBody(w, "text/html; charset=utf-8", buf.Bytes())
	case builtins.KindJSON:
		body, err := field[object.Object](table, "body")
		if err != nil {
			return err
		}
		data, err := jsonBody(body)
		if err != nil {
			return err
		}
		writeBody(w, "application/json", data)
	case builtins.KindText:
		body, err := field[object.Object](table, "body")
		if err != nil {
			return err
		}
		writeBody(w, "text/plain; charset=utf-8", []byte(fmt.Sprint(body.Interface())))
	case builtins.KindRedirect:
		location, err := field[string](table, "location")
		if err != nil {
			return err
		}
		http.Redirect(w, r, location, http.StatusFound)
	default:
		return errz.New(errz.ValueTypeMismatch, "unknown handler type %q", kind)
	}
	return nil
}

// jsonBody encodes a json handler body. A string body that already holds
// valid JSON is sent as is.
func jsonBody(body object.Object) ([]byte, error) {
	if str, ok := body.(*object.String); ok && json.Valid([]byte(str.Value())) {
		return []byte(str.Value()), nil
	}
	return json.Marshal(body)
}

func field[T any](table *object.Table, key string) (T, error) {
	value, ok := table.Get(key)
	if !ok {
		var zero T
		return zero, errz.New(errz.UnexpectedError, "handler table has no %q field", key)
	}
	return object.As[T](value)
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().Err(err).
		Str("path", r.URL.Path).
		Str("request_id", RequestID(r.Context())).
		Msg("handler failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
