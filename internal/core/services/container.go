package services

import (
	portsrepo "github.com/finledger/finledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finledger/finledger_backend/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies, wired bottom-up: registry, entry engine, source
// binding, reconciliation.
func NewServiceContainer(repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.Registry = NewRegistryService(repos.AccountRepo, repos.CategoryMappingRepo, repos.ExternalAccountRepo)
	container.Entry = NewEntryService(repos.EntryRepo, repos.AccountRepo, repos.ExternalAccountRepo)
	container.Binding = NewBindingService(repos.SourceRepo, repos.ExternalAccountRepo, container.Registry, container.Entry)
	container.Recon = NewReconService(repos.EntryRepo, repos.SourceRepo, repos.ExternalAccountRepo, container.Binding)

	return container
}
