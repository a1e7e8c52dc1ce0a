package crud

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"videotube/domain"
	"videotube/errs"
)

// assertOwner fails with errs.NotOwner if entity does not belong to callerID.
// A nil entity means the lookup found nothing and fails with ENOTFOUND first.
func assertOwner(entity domain.Owned, callerID string) error {
	if entity == nil {
		return errs.Errorf(errs.ENOTFOUND, "The resource does not exist.")
	}
	if callerID == "" || entity.OwnedBy() != callerID {
		return errs.NotOwner
	}
	return nil
}

// ownedRecord is a pointer to a record type that has an owner.
type ownedRecord[T any] interface {
	*T
	domain.Owned
}

// loadOwned loads the record with the given id and runs the ownership guard on it.
// name is used in the not found message.
func loadOwned[T any, PT ownedRecord[T]](ctx context.Context, db *gorm.DB, id, callerID, name string) (PT, error) {
	if !domain.ValidID(id) {
		return nil, errs.IdInvalid
	}
	var record T
	err := db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Errorf(errs.ENOTFOUND, "The %s does not exist.", name)
	}
	if err != nil {
		return nil, err
	}
	owned := PT(&record)
	if err := assertOwner(owned, callerID); err != nil {
		return nil, err
	}
	return owned, nil
}

// exists makes sure a row with the given id is present in table.
func exists(ctx context.Context, db *gorm.DB, table, id, name string) error {
	if !domain.ValidID(id) {
		return errs.IdInvalid
	}
	var n int64
	if err := db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errs.Errorf(errs.ENOTFOUND, "The %s does not exist.", name)
	}
	return nil
}
