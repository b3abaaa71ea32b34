package models

import (
	"bitbucket.org/terrafocus/lease_backend/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove list & map if exists
}

// remove both item & list + map
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

func (obj Property) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Property](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Property) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllProperty](obj.CompanyId); err != nil {
		return err
	}
	if err := utils.RemoveRedisMap[AllProperty](obj.CompanyId); err != nil {
		return err
	}
	return nil
}

func (obj Supplier) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Supplier](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Supplier) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllSupplier](obj.CompanyId); err != nil {
		return err
	}
	if err := utils.RemoveRedisMap[AllSupplier](obj.CompanyId); err != nil {
		return err
	}
	return nil
}

func (obj Charge) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Charge](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Charge) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllCharge](obj.CompanyId); err != nil {
		return err
	}
	if err := utils.RemoveRedisMap[AllCharge](obj.CompanyId); err != nil {
		return err
	}
	return nil
}

func (obj DocType) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[DocType](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj DocType) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllDocType](obj.CompanyId); err != nil {
		return err
	}
	if err := utils.RemoveRedisMap[AllDocType](obj.CompanyId); err != nil {
		return err
	}
	return nil
}

func (obj FiscalYear) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[FiscalYear](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj FiscalYear) RemoveAllRedis() error {
	return nil
}

func (obj AccountingPeriod) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[AccountingPeriod](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj AccountingPeriod) RemoveAllRedis() error {
	return nil
}

func (obj Contract) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Contract](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Contract) RemoveAllRedis() error {
	return nil
}

func (obj Receipt) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Receipt](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Receipt) RemoveAllRedis() error {
	return nil
}

func (obj Invoice) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Invoice](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Invoice) RemoveAllRedis() error {
	return nil
}

func (obj Attachment) RemoveInstanceRedis() error {
	return nil
}

func (obj Attachment) RemoveAllRedis() error {
	return nil
}

func (obj Company) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Company](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Company) RemoveAllRedis() error {
	return nil
}

func (obj User) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[User](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj User) RemoveAllRedis() error {
	return nil
}
