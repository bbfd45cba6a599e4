package sqlstore

import "github.com/goliatone/go-vendorgate/core"

var (
	_ core.LeadStore        = (*LeadStore)(nil)
	_ core.CompanyStore     = (*CompanyStore)(nil)
	_ core.ActivityLog      = (*ActivityStore)(nil)
	_ core.ActivityRecorder = (*ActivityStore)(nil)
)
