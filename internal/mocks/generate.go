package mocks

//go:generate mockery --name JobStore --srcpkg github.com/aevon-lab/flowrule/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
