package reconcile

import (
	"context"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/hosteddb"
	"github.com/sirupsen/logrus"
)

const moduleName = "reconcile"

// Service resolves local agency names to external rows. The external client
// is injected at construction; this package holds no connection singletons.
type Service struct {
	external *hosteddb.Client
	cache    *MatchCache
	logger   *logrus.Logger
}

func NewService(external *hosteddb.Client, cache *MatchCache, logger *logrus.Logger) *Service {
	return &Service{
		external: external,
		cache:    cache,
		logger:   logger,
	}
}

// ResolveMatch finds the external customer/partner name for a local agency
// name, consulting the cache first. No-match is a valid result, and it is
// cached too so unknown agencies don't trigger a full candidate read per
// lookup.
func (s *Service) ResolveMatch(ctx context.Context, localName string) (MatchResult, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(localName); ok {
			return cached, nil
		}
	}

	candidates, err := s.candidateNames(ctx)
	if err != nil {
		return MatchResult{}, err
	}

	result := Match(localName, candidates)
	if s.cache != nil {
		s.cache.Set(result)
	}
	return result, nil
}

// candidateNames is the full distinct list of external customer and partner
// names, in external row order, targets first. The matcher's first-hit
// tie-break makes that ordering part of the observable behavior.
func (s *Service) candidateNames(ctx context.Context) ([]string, error) {
	customerNames, err := s.external.DistinctColumn(ctx, targetsTable, "customer_name")
	if err != nil {
		return nil, err
	}
	partnerNames, err := s.external.DistinctColumn(ctx, invoicesTable, "partner_name")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(customerNames))
	names := make([]string, 0, len(customerNames)+len(partnerNames))
	for _, n := range customerNames {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, n := range partnerNames {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names, nil
}

// FetchTargetsAndInvoices pulls the external rows for a local agency name.
// An unmatched name yields empty collections so callers can render a neutral
// "no external data" state. Transport failures surface as errors and are not
// retried here; callers may re-invoke manually.
func (s *Service) FetchTargetsAndInvoices(ctx context.Context, localName string) (*ExternalData, error) {
	match, err := s.ResolveMatch(ctx, localName)
	if err != nil {
		config.LogError(s.logger, moduleName, "FetchTargetsAndInvoices", "external fetch failed", localName, err)
		return nil, err
	}

	data := &ExternalData{
		Match:    match,
		Targets:  []ExternalCustomer{},
		Invoices: []ExternalInvoiceRecord{},
	}
	if match.Kind == MatchNone {
		return data, nil
	}

	targetsQuery := hosteddb.NewQuery().
		Eq("customer_name", match.ExternalName).
		OrderAsc("target_year")
	if err := s.external.Get(ctx, targetsTable, targetsQuery, &data.Targets); err != nil {
		config.LogError(s.logger, moduleName, "FetchTargetsAndInvoices", "external fetch failed", localName, err)
		return nil, err
	}

	invoices, err := s.fetchInvoices(ctx, match.ExternalName)
	if err != nil {
		config.LogError(s.logger, moduleName, "FetchTargetsAndInvoices", "external fetch failed", localName, err)
		return nil, err
	}
	data.Invoices = invoices
	return data, nil
}

func (s *Service) fetchInvoices(ctx context.Context, externalName string) ([]ExternalInvoiceRecord, error) {
	var invoices []ExternalInvoiceRecord
	query := hosteddb.NewQuery().
		Eq("partner_name", externalName).
		OrderAsc("date_order")
	if err := s.external.Get(ctx, invoicesTable, query, &invoices); err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []ExternalInvoiceRecord{}
	}
	return invoices, nil
}
