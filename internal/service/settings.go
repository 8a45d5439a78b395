package service

import "github.com/RoyceAzure/lab/storefront/internal/domain/model"

// IStoreSettingsProvider 每次下單都重新讀取, 設定檔熱更新後立即生效
type IStoreSettingsProvider interface {
	StoreSettings() model.StoreSettings
}

type StaticStoreSettings model.StoreSettings

func (s StaticStoreSettings) StoreSettings() model.StoreSettings {
	return model.StoreSettings(s)
}
