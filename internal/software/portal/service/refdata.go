package service

import (
	"driver-portal/internal/domain/driver"
	"driver-portal/internal/general/eventloop"
)

// refData is reference data for the new-car form, fetched at most once per session.
type refData struct {
	brands  []string
	loaded  bool
	loading bool
}

func (profile *Profile) loadBrands() {
	if profile.refs.loaded || profile.refs.loading {
		return
	}
	portal := profile.portal
	profile.refs.loading = true
	gen := profile.gen

	eventloop.Go(portal.loop, func() ([]string, error) {
		return portal.api.CarBrands(portal.ctx)
	}, func(brands []string, err error) {
		if gen != profile.gen {
			return
		}
		profile.refs.loading = false
		if err != nil {
			if !swallowed(err) {
				portal.logger.Error(portal.logCtx(), "car_brands_failed", "Could not load car brands", err, nil)
			}
			return
		}
		profile.refs.brands = brands
		profile.refs.loaded = true
		portal.renderPlate()
	})
}

// years is the selectable model-year range, newest first.
func (profile *Profile) years() []int {
	return driver.SelectableYears(profile.portal.loop.Now())
}
