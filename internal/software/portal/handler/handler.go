package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"driver-portal/internal/general/logger"
	"driver-portal/internal/ports"
)

var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrMissingArgument = errors.New("missing argument")
)

// Action names shared by the terminal and the bridge.
const (
	ActionCity             = "city"
	ActionChangeCity       = "change-city"
	ActionPhone            = "phone"
	ActionLogin            = "login"
	ActionGoRegister       = "go-register"
	ActionRegisterField    = "register-field"
	ActionRegister         = "register"
	ActionBack             = "back"
	ActionOtpDigit         = "otp-digit"
	ActionOtpBackspace     = "otp-backspace"
	ActionOtpPaste         = "otp-paste"
	ActionVerify           = "verify"
	ActionResend           = "resend"
	ActionSubmit           = "submit"
	ActionPeriod           = "period"
	ActionLeaderboard      = "leaderboard"
	ActionCloseLeaderboard = "close-leaderboard"
	ActionRetryLeaderboard = "retry-leaderboard"
	ActionEditPlate        = "edit-plate"
	ActionCheckPlate       = "check-plate"
	ActionConfirmCar       = "confirm-car"
	ActionSaveCar          = "save-car"
	ActionClosePlate       = "close-plate"
	ActionLogout           = "logout"
	ActionRestore          = "restore"
)

// PortalHandler adapts named user actions to the PortalService.
type PortalHandler struct {
	svc    ports.PortalService
	logger *logger.Logger
	ctx    context.Context
}

func NewPortalHandler(ctx context.Context, svc ports.PortalService, logger *logger.Logger) *PortalHandler {
	return &PortalHandler{svc: svc, logger: logger, ctx: ctx}
}

// Dispatch runs one action. Arguments of free-text actions are joined with spaces.
func (handler *PortalHandler) Dispatch(name string, args []string) error {
	svc := handler.svc
	name = strings.ToLower(strings.TrimSpace(name))
	text := strings.Join(args, " ")

	switch name {
	case ActionCity:
		if text == "" {
			return fmt.Errorf("%w: city", ErrMissingArgument)
		}
		svc.SelectCity(text)
	case ActionChangeCity:
		svc.ChangeCity()
	case ActionPhone:
		svc.SetPhone(text)
	case ActionLogin:
		svc.Login()
	case ActionGoRegister:
		svc.GoToRegister()
	case ActionRegisterField:
		if len(args) == 0 {
			return fmt.Errorf("%w: field name", ErrMissingArgument)
		}
		svc.SetRegistrationField(args[0], strings.Join(args[1:], " "))
	case ActionRegister:
		svc.Register()
	case ActionBack:
		svc.Back()
	case ActionOtpDigit:
		if len(args) < 1 {
			return fmt.Errorf("%w: cell index", ErrMissingArgument)
		}
		index, err := cellIndex(args[0])
		if err != nil {
			return err
		}
		svc.OtpInput(index, strings.Join(args[1:], ""))
	case ActionOtpBackspace:
		if len(args) < 1 {
			return fmt.Errorf("%w: cell index", ErrMissingArgument)
		}
		index, err := cellIndex(args[0])
		if err != nil {
			return err
		}
		svc.OtpBackspace(index)
	case ActionOtpPaste:
		svc.OtpPaste(text)
	case ActionVerify:
		svc.Verify()
	case ActionResend:
		svc.Resend()
	case ActionSubmit:
		svc.Submit()
	case ActionPeriod:
		if text == "" {
			return fmt.Errorf("%w: period", ErrMissingArgument)
		}
		svc.SelectPeriod(text)
	case ActionLeaderboard:
		svc.OpenLeaderboard()
	case ActionCloseLeaderboard:
		svc.CloseLeaderboard()
	case ActionRetryLeaderboard:
		svc.RetryLeaderboard()
	case ActionEditPlate:
		svc.OpenPlateEditor()
	case ActionCheckPlate:
		svc.CheckPlate(text)
	case ActionConfirmCar:
		svc.ConfirmExistingCar()
	case ActionSaveCar:
		brand, model, year, err := carArgs(args)
		if err != nil {
			return err
		}
		svc.SaveNewCar(brand, model, year)
	case ActionClosePlate:
		svc.ClosePlateEditor()
	case ActionLogout:
		svc.Logout()
	case ActionRestore:
		svc.RestoreSession()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}

	handler.logger.Debug(handler.ctx, "action_dispatched", name, map[string]any{"args": len(args)})
	return nil
}

func cellIndex(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("cell index %q: %w", s, err)
	}
	return i, nil
}

// carArgs reads "brand model... year"; a multi-word model keeps its spaces.
func carArgs(args []string) (brand, model, year string, err error) {
	if len(args) < 3 {
		return "", "", "", fmt.Errorf("%w: brand model year", ErrMissingArgument)
	}
	last := len(args) - 1
	return args[0], strings.Join(args[1:last], " "), args[last], nil
}
