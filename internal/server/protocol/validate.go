package protocol

import "github.com/dmitrijs2005/peermail/internal/address"

func (r *AuthRequest) Validate() error {
	if r.ReceivingAddressID == "" || r.PassCode == "" || r.SendingAddress == "" || r.SendingDisplayName == "" {
		return ErrInvalidRequest
	}
	if !address.IsNumeric(r.ReceivingAddressID) || !address.IsNumeric(r.PassCode) {
		return ErrInvalidRequest
	}
	if _, err := address.Parse(r.SendingAddress); err != nil {
		return ErrInvalidRequest
	}
	return nil
}

func (r *AuthConfirmRequest) Validate() error {
	if r.OtherAddress == "" || !address.IsNumeric(r.PassCode) {
		return ErrInvalidRequest
	}
	if _, err := address.Parse(r.OtherAddress); err != nil {
		return ErrInvalidRequest
	}
	return nil
}

func (r *ReceiveRequest) Validate() error {
	if !address.IsNumeric(r.ReceivingAddressID) || r.IdentCode == "" || r.Package == "" ||
		r.Hash == "" || r.Salt == "" || r.Timestamp <= 0 {
		return ErrInvalidRequest
	}
	return nil
}

func (r *MessageConfirmRequest) Validate() error {
	if r.Hash == "" || r.Nonce == "" {
		return ErrInvalidRequest
	}
	return nil
}
