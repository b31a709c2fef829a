package hunt

import (
	"crypto/ed25519"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
)

// Match is a found account in presentable form.
type Match struct {
	Address string
	Phrase  string
}

// DiscardSink accepts every match and never stops the search.
type DiscardSink struct{}

// Found implements engine.Callback.
func (DiscardSink) Found([]byte) bool { return true }

// ReportSink converts each matched key into an (address, recovery phrase)
// pair and emits it. It stops the search once the target count is reached;
// a target of 0 stops after the first match.
type ReportSink struct {
	print  io.Writer
	writer *csv.Writer
	notify func(Match)
	count  int
	found  int
	err    error
}

// NewReportSink builds a sink that prints to print (nil disables), appends
// records through writer (nil disables), and calls notify per match.
func NewReportSink(print io.Writer, writer *csv.Writer, count int, notify func(Match)) *ReportSink {
	return &ReportSink{
		print:  print,
		writer: writer,
		notify: notify,
		count:  count,
	}
}

// Found implements engine.Callback. The engine only reports keys that
// satisfy its matching invariant, so a key that fails to convert is fatal:
// the sink records the error and stops the search.
func (s *ReportSink) Found(key []byte) bool {
	s.found++

	account, err := crypto.AccountFromPrivateKey(ed25519.PrivateKey(key))
	if err != nil {
		s.err = fmt.Errorf("matched key does not form an account: %w", err)
		return false
	}
	phrase, err := mnemonic.FromPrivateKey(ed25519.PrivateKey(key))
	if err != nil {
		s.err = fmt.Errorf("matched key has no recovery phrase: %w", err)
		return false
	}

	address := account.Address.String()

	if s.print != nil {
		fmt.Fprintf(s.print, "%s,%s\n", address, phrase)
	}

	if s.writer != nil {
		if err := s.writer.Write([]string{address, phrase}); err != nil {
			s.err = fmt.Errorf("write result record: %w", err)
			return false
		}
		// flush per record so partial results survive interruption
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			s.err = fmt.Errorf("flush result record: %w", err)
			return false
		}
	}

	if s.notify != nil {
		s.notify(Match{Address: address, Phrase: phrase})
	}

	return s.found < s.count
}

// FoundCount returns how many matches the sink has received.
func (s *ReportSink) FoundCount() int {
	return s.found
}

// Err returns the first conversion or write failure, if any.
func (s *ReportSink) Err() error {
	return s.err
}
