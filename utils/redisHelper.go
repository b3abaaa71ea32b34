package utils

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
)

var mutex sync.Mutex

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

// get type name of struct
func GetType(i interface{}) string {
	return reflect.TypeOf(i).Name()
}

/* Redis */

// check if model has expiration date
func typeHasExpiration(typeName string) bool {
	expirableTypes := map[string]bool{
		"Charge":   true,
		"DocType":  true,
		"Property": true,
		"Supplier": true,
	}
	return expirableTypes[typeName]
}

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	typeName := GetTypeName[T]()
	key := typeName + ":" + fmt.Sprint(id)

	var duration time.Duration
	if typeHasExpiration(typeName) {
		duration = GetCacheLifespan()
	}
	return config.SetRedisObject(key, &obj, duration)
}

// store object
func StoreRedisList[T any](obj any, companyId int) error {
	var key string
	typeName := GetTypeName[T]()
	if companyId == 0 {
		key = GetTypeName[T]() + "List"
	} else {
		key = GetTypeName[T]() + "List:" + fmt.Sprint(companyId)
	}

	var duration time.Duration
	if typeHasExpiration(typeName) {
		duration = GetCacheLifespan()
	}
	return config.SetRedisObject(key, &obj, duration)
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// retrieve a list.
// companyId can be zero
func RetrieveRedisList[T any](companyId int) ([]*T, error) {
	var key string
	if companyId == 0 {
		key = GetTypeName[T]() + "List"
	} else {
		key = GetTypeName[T]() + "List:" + fmt.Sprint(companyId)
	}

	var result []*T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear list, TypeList:$company_id
func RemoveRedisList[T any](companyId int) error {
	var key string = GetTypeName[T]() + "List:" + fmt.Sprint(companyId)
	return config.RemoveRedisKey(key)
}

// clear map, TypeMap:$company_id
func RemoveRedisMap[T any](companyId int) error {
	var key string = GetTypeName[T]() + "Map:" + fmt.Sprint(companyId)
	return config.RemoveRedisKey(key)
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.RemoveRedisKey(key)
}

// GetSequence hands out the next per-company document sequence for T.
// Redis is the fast path; the db max(sequence_no) seeds it after a cache
// flush, and the uniqueness probe closes the gap when redis lags the db.
func GetSequence[T any](ctx context.Context, companyId int) (int64, error) {
	var model T
	mutex.Lock()
	defer mutex.Unlock()
	cacheKey := fmt.Sprint(companyId) + "-" + strings.ToLower(GetTypeName[T]()) + "_seq"
	var seqNo int64
	var err error
	db := config.GetDB()

	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// if not found in redis, get from db
		if seqNo == 1 {
			// get max seq no from db
			var dbSeq *int64
			if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
				Where("company_id = ?", companyId).
				Scan(&dbSeq).Error; err != nil {
				return 0, err
			}
			// in case db has no records yet
			if dbSeq == nil {
				seqNo = 0
			} else {
				seqNo = *dbSeq
			}
			// set redis
			seqNo++
			if err := config.SetRedisObject(cacheKey, &seqNo, 0); err != nil {
				return 0, err
			}
		}
		// check if sequence number exists in db
		err = ValidateUnique[T](ctx, companyId, "sequence_no", seqNo, 0)
		if err == nil {
			break
		}
	}
	return seqNo, nil
}
