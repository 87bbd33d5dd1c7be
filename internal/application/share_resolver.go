package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/calendar-share/internal/persistence"
	"github.com/example/calendar-share/internal/sharelink"
)

// DefaultPrincipalPageSize bounds one directory listing page during a scan.
const DefaultPrincipalPageSize = 500

// ShareResolver maps a bearer secret to the calendar it grants access to.
type ShareResolver interface {
	Resolve(ctx context.Context, secret string) (ShareTarget, error)
}

// SecretVerifier checks secret against a stored hash and returns nil on a match.
type SecretVerifier func(hash, secret string) error

// PrincipalDirectory captures the directory listing needed by the scanner.
type PrincipalDirectory interface {
	ListPrincipals(ctx context.Context, filter persistence.PrincipalFilter) ([]persistence.Principal, error)
}

// PrincipalScanner resolves secrets by walking every individual principal
// and checking its share tokens in order.
type PrincipalScanner struct {
	directory PrincipalDirectory
	verify    SecretVerifier
	pageSize  int
	recorder  FeedRecorder
	logger    *slog.Logger
}

// NewPrincipalScanner constructs a scanner. A pageSize of zero lists the
// whole directory in a single call.
func NewPrincipalScanner(directory PrincipalDirectory, verify SecretVerifier, pageSize int) *PrincipalScanner {
	return NewPrincipalScannerWithLogger(directory, verify, pageSize, nil, nil)
}

// NewPrincipalScannerWithLogger constructs a scanner with a metrics recorder and logger.
func NewPrincipalScannerWithLogger(directory PrincipalDirectory, verify SecretVerifier, pageSize int, recorder FeedRecorder, logger *slog.Logger) *PrincipalScanner {
	if verify == nil {
		verify = sharelink.VerifySecret
	}
	if pageSize < 0 {
		pageSize = 0
	}
	return &PrincipalScanner{
		directory: directory,
		verify:    verify,
		pageSize:  pageSize,
		recorder:  defaultRecorder(recorder),
		logger:    defaultLogger(logger),
	}
}

func (s *PrincipalScanner) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PrincipalScanner", operation, attrs...)
}

// Resolve returns the first (principal, token) pair whose token verifies
// against secret and carries a calendar id. Both loops stop at that match.
func (s *PrincipalScanner) Resolve(ctx context.Context, secret string) (target ShareTarget, err error) {
	if s == nil || s.directory == nil {
		err = fmt.Errorf("PrincipalScanner is not configured")
		return
	}

	logger := s.loggerWith(ctx, "Resolve")
	scanned := 0
	defer func() {
		s.recorder.RecordResolution(ctx, StageScan, resolutionResult(err))
		if err != nil {
			if errors.Is(err, ErrShareNotFound) {
				logger.DebugContext(ctx, "share secret not matched", "principals_scanned", scanned)
				return
			}
			logger.ErrorContext(ctx, "share secret scan failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "share secret resolved",
			"account_id", target.AccountID,
			"calendar_id", target.CalendarID,
			"principals_scanned", scanned,
		)
	}()

	var after uint32
	for {
		page, listErr := s.directory.ListPrincipals(ctx, persistence.PrincipalFilter{
			Type:    persistence.PrincipalIndividual,
			AfterID: after,
			Limit:   s.pageSize,
		})
		if listErr != nil {
			err = storageError("list principals", listErr)
			return
		}

		for _, principal := range page {
			scanned++
			if calendarID, ok := s.matchPrincipal(ctx, logger, principal, secret); ok {
				target = ShareTarget{AccountID: principal.ID, CalendarID: calendarID}
				return
			}
		}

		if s.pageSize == 0 || len(page) < s.pageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	err = ErrShareNotFound
	return
}

func (s *PrincipalScanner) matchPrincipal(ctx context.Context, logger *slog.Logger, principal persistence.Principal, secret string) (string, bool) {
	for position, data := range principal.Data {
		switch entry := data.(type) {
		case persistence.ShareLinkData:
			calendarID, reason := matchToken(s.verify, entry.Token, secret)
			if reason == "" {
				return calendarID, true
			}
			s.recorder.RecordSkippedToken(ctx, reason)
			logger.DebugContext(ctx, "share token skipped",
				"principal_id", principal.ID,
				"position", position,
				"reason", reason,
			)
		case persistence.EmailAliasData, persistence.AppPasswordData, persistence.OpaqueData:
			continue
		}
	}
	return "", false
}

// matchToken checks one stored token against secret. It returns the calendar
// id on a match, or the reason the token was skipped. Meta is parsed before
// the hash is verified.
func matchToken(verify SecretVerifier, token, secret string) (calendarID, skipReason string) {
	decoded, ok := sharelink.Decode(token).Get()
	if !ok {
		return "", SkipMalformedToken
	}
	calendarID, ok = decoded.CalendarID().Get()
	if !ok {
		return "", SkipMalformedMeta
	}
	if err := verify(decoded.Hash, secret); err != nil {
		return "", SkipVerificationFail
	}
	return calendarID, ""
}

func resolutionResult(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrShareNotFound):
		return ResultNotFound
	default:
		return ResultError
	}
}
