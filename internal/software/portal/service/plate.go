package service

import (
	"driver-portal/internal/domain/driver"
	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/eventloop"
)

// PlateStep is the state of the car-change sub-flow.
type PlateStep string

const (
	PlateIdle       PlateStep = "idle"
	PlateEntry      PlateStep = "plate_entry"
	PlateMatchedCar PlateStep = "matched_car"
	PlateNewCarForm PlateStep = "new_car_form"
)

// plateState is the pending car change. seq is bumped on every open and close.
type plateState struct {
	step    PlateStep
	seq     uint64
	input   string
	plate   string // normalized plate under edit
	matched *driver.CarRecord
	busy    bool
	err     string
}

func (plate *plateState) current() PlateStep {
	if plate.step == "" {
		return PlateIdle
	}
	return plate.step
}

// OpenPlateEditor starts a car change, pre-filled with the current plate.
// A driver without an assigned car cannot change it.
func (profile *Profile) OpenPlateEditor() {
	if profile.driver == nil || profile.driver.CarID == "" {
		return
	}
	profile.plate = plateState{
		step:  PlateEntry,
		seq:   profile.plate.seq + 1,
		input: profile.driver.CarNumber,
	}
}

func (profile *Profile) ClosePlateEditor() {
	profile.plate = plateState{step: PlateIdle, seq: profile.plate.seq + 1}
}

// CheckPlate looks the plate up; a match asks for confirmation, otherwise the new-car form opens.
func (profile *Profile) CheckPlate(input string) {
	if profile.plate.current() != PlateEntry || profile.plate.busy {
		return
	}
	profile.plate.input = input
	plate, err := driver.ValidatePlate(input)
	if err != nil {
		profile.plate.err = errorText(validationFailure(err), MsgPlateInvalid, MsgUnreachableShort)
		return
	}

	portal := profile.portal
	profile.plate.busy = true
	profile.plate.err = ""
	gen, seq := profile.gen, profile.plate.seq

	eventloop.Go(portal.loop, func() (*driver.CarRecord, error) {
		return portal.api.CheckPlate(portal.ctx, plate)
	}, func(car *driver.CarRecord, err error) {
		if gen != profile.gen || seq != profile.plate.seq {
			return
		}
		profile.plate.busy = false
		switch {
		case err != nil:
			if swallowed(err) {
				return
			}
			profile.plate.err = errorText(err, MsgUpdateFailed, MsgUnreachableShort)
		case car != nil:
			profile.plate.step = PlateMatchedCar
			profile.plate.plate = plate
			profile.plate.matched = car
		default:
			profile.plate.step = PlateNewCarForm
			profile.plate.plate = plate
			profile.plate.matched = nil
			profile.loadBrands()
		}
		portal.renderPlate()
	})
}

// ConfirmExistingCar assigns the matched car.
func (profile *Profile) ConfirmExistingCar() {
	if profile.plate.current() != PlateMatchedCar || profile.plate.busy || profile.plate.matched == nil {
		return
	}
	car := *profile.plate.matched
	if car.Number == "" {
		car.Number = profile.plate.plate
	}
	profile.changeCar(car)
}

// SaveNewCar creates and assigns a car for the checked plate.
func (profile *Profile) SaveNewCar(brand, model, year string) {
	if profile.plate.current() != PlateNewCarForm || profile.plate.busy {
		return
	}
	car, err := driver.NewCar(profile.plate.plate, brand, model, year, profile.portal.loop.Now())
	if err != nil {
		profile.plate.err = errorText(validationFailure(err), MsgCarFields, MsgUnreachableShort)
		return
	}
	profile.changeCar(car)
}

func (profile *Profile) changeCar(car driver.CarRecord) {
	portal := profile.portal
	profile.plate.busy = true
	profile.plate.err = ""
	gen, seq := profile.gen, profile.plate.seq

	eventloop.Go(portal.loop, func() (driver.CarRecord, error) {
		return portal.api.ChangeCar(portal.ctx, car)
	}, func(saved driver.CarRecord, err error) {
		if gen != profile.gen || seq != profile.plate.seq {
			return
		}
		profile.plate.busy = false
		if err != nil {
			if swallowed(err) {
				return
			}
			profile.plate.err = errorText(err, MsgUpdateFailed, MsgUnreachableShort)
			portal.renderPlate()
			return
		}
		if err := profile.driver.ApplyCar(saved); err != nil {
			profile.plate.err = MsgUpdateFailed
			portal.renderPlate()
			return
		}

		portal.logger.Info(portal.logCtx(), "car_changed", "Driver car updated", map[string]any{"plate": saved.Number})
		portal.publish(contracts.EventCarChanged, func(msg *contracts.PortalEventMessage) {
			msg.Plate = saved.Number
		})
		profile.ClosePlateEditor()
		portal.renderPlate()
		portal.renderProfile()
	})
}
