package autosync

import (
	"context"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/dto"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
)

// SaveBotRecord 保存机器人，返回填充了 id、version、时间戳的持久化记录
func (s *Syncer) SaveBotRecord(ctx context.Context, b *model.Bot) (*dto.BotDTO, error) {
	saved, err := s.SaveBotArtifact(ctx, b)
	if err != nil {
		return nil, err
	}
	d := dto.BotToDTO(saved)
	return &d, nil
}

// SaveItemRecord 保存物品并返回持久化记录
func (s *Syncer) SaveItemRecord(ctx context.Context, it *model.Item) (*dto.ItemDTO, error) {
	saved, err := s.SaveItemArtifact(ctx, it)
	if err != nil {
		return nil, err
	}
	d := dto.ItemToDTO(saved)
	return &d, nil
}

// SaveAccountRecord 保存账号并返回持久化记录，凭据保持真实值
func (s *Syncer) SaveAccountRecord(ctx context.Context, a *model.Account) (*dto.AccountDTO, error) {
	saved, err := s.SaveAccountArtifact(ctx, a)
	if err != nil {
		return nil, err
	}
	d := dto.AccountToDTO(saved)
	return &d, nil
}
