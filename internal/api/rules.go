package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/automation"
)

// maxIDLen limits path IDs.
const maxIDLen = 100

func ruleID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid rule ID")
		return "", false
	}
	return id, true
}

// decodeRule reads a rule body. Unknown trigger or action kinds and
// missing operands are rejected by the rule's JSON decoder.
func decodeRule(w http.ResponseWriter, r *http.Request) (automation.Rule, bool) {
	var rule automation.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		if isRuleValidation(err) {
			writeValidationError(w, err.Error())
		} else {
			writeBadRequest(w, "invalid JSON body")
		}
		return automation.Rule{}, false
	}
	return rule, true
}

func isRuleValidation(err error) bool {
	return errors.Is(err, automation.ErrInvalidRule) ||
		errors.Is(err, automation.ErrInvalidName) ||
		errors.Is(err, automation.ErrInvalidTrigger) ||
		errors.Is(err, automation.ErrInvalidAction)
}

// writeRuleError maps registry errors to responses.
func (s *Server) writeRuleError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, automation.ErrRuleNotFound):
		writeNotFound(w, "rule not found")
	case isRuleValidation(err):
		writeValidationError(w, err.Error())
	default:
		s.logger.Error("rule "+action+" failed", "error", err)
		writeInternalError(w, "failed to "+action+" rule")
	}
}

// handleListRules returns every rule in evaluation order.
func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	rules := s.rules.List()
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules, "count": len(rules)})
}

// handleGetRule returns one rule.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	rule, err := s.rules.Get(id)
	if err != nil {
		s.writeRuleError(w, err, "get")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// handleCreateRule adds a rule. Any id in the body is ignored.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	rule, ok := decodeRule(w, r)
	if !ok {
		return
	}
	created, err := s.rules.Add(r.Context(), rule)
	if err != nil {
		s.writeRuleError(w, err, "create")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateRule replaces a rule, keeping its id and position.
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	rule, ok := decodeRule(w, r)
	if !ok {
		return
	}
	updated, err := s.rules.Update(r.Context(), id, rule)
	if err != nil {
		s.writeRuleError(w, err, "update")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteRule removes a rule. Deleting a missing rule succeeds.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	if err := s.rules.Delete(r.Context(), id); err != nil {
		s.writeRuleError(w, err, "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleRule flips a rule's enabled flag.
func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleID(w, r)
	if !ok {
		return
	}
	rule, err := s.rules.Toggle(r.Context(), id)
	if err != nil {
		s.writeRuleError(w, err, "toggle")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}
