package editor

import (
	"fmt"

	"advent_calendar/internal/domain/models"
)

// Операции над списком блоков. Работают на копии и подходят как для
// верхнего уровня конверта, так и для содержимого блока "secret".

func InsertBlock(list models.BlockList, index int, block models.Block) (models.BlockList, error) {
	if block == nil {
		return nil, ErrNilBlock
	}
	if index < 0 || index > len(list) {
		return nil, fmt.Errorf("editor.InsertBlock: %d: %w", index, ErrIndexOutOfRange)
	}

	out := make(models.BlockList, 0, len(list)+1)
	out = append(out, list[:index]...)
	out = append(out, block)
	out = append(out, list[index:]...)
	return out, nil
}

func RemoveBlock(list models.BlockList, index int) (models.BlockList, error) {
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("editor.RemoveBlock: %d: %w", index, ErrIndexOutOfRange)
	}

	out := make(models.BlockList, 0, len(list)-1)
	out = append(out, list[:index]...)
	out = append(out, list[index+1:]...)
	return out, nil
}

func MoveBlock(list models.BlockList, from, to int) (models.BlockList, error) {
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return nil, fmt.Errorf("editor.MoveBlock: %d -> %d: %w", from, to, ErrIndexOutOfRange)
	}

	moved := list[from]
	out, _ := RemoveBlock(list, from)
	return InsertBlock(out, to, moved)
}

func ReplaceBlock(list models.BlockList, index int, block models.Block) (models.BlockList, error) {
	if block == nil {
		return nil, ErrNilBlock
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("editor.ReplaceBlock: %d: %w", index, ErrIndexOutOfRange)
	}

	out := make(models.BlockList, len(list))
	copy(out, list)
	out[index] = block
	return out, nil
}
