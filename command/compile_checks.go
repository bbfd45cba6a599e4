package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SaveLeadMessage]      = (*SaveLeadCommand)(nil)
	_ gocmd.Commander[DeleteLeadMessage]    = (*DeleteLeadCommand)(nil)
	_ gocmd.Commander[SaveCompanyMessage]   = (*SaveCompanyCommand)(nil)
	_ gocmd.Commander[DeleteCompanyMessage] = (*DeleteCompanyCommand)(nil)
	_ gocmd.Commander[PruneActivityMessage] = (*PruneActivityCommand)(nil)
)
