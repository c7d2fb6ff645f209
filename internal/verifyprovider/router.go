package verifyprovider

import (
	"context"

	"github.com/yachtly/charter-service/internal/utils"
)

// Router sends reserved test numbers to the fake when acceptFake is on and
// everything else to the primary provider.
type Router struct {
	primary    Provider
	fake       Provider
	acceptFake bool
}

func NewRouter(primary, fake Provider, acceptFake bool) *Router {
	return &Router{primary: primary, fake: fake, acceptFake: acceptFake}
}

func (r *Router) pick(phone string) Provider {
	if r.acceptFake && utils.IsTestPhoneNumber(phone) {
		return r.fake
	}
	return r.primary
}

func (r *Router) StartVerification(ctx context.Context, phone, channel string) (*StartResult, error) {
	return r.pick(phone).StartVerification(ctx, phone, channel)
}

func (r *Router) CheckVerification(ctx context.Context, phone, code string) (*CheckResult, error) {
	return r.pick(phone).CheckVerification(ctx, phone, code)
}
