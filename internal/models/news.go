// models содержит доменные сущности news-cms.
// Эти типы используются слоями бизнес-логики, хранилища и транспорта.
package models

// News — доменная сущность новости.
//
// Особенности:
//   - ID назначается хранилищем при вставке (> 0) и не меняется;
//   - Title/Author/Content никогда не хранятся пустыми;
//   - Photo — nil, пока к новости не прикреплён файл; иначе публичный URL.
type News struct {
	ID      int64
	Title   string
	Author  string
	Content string
	Photo   *string
}

// NewsFilter — необязательные фильтры списка новостей.
// Пустое поле не накладывает ограничений; непустые объединяются через AND.
// Сравнение — регистронезависимое вхождение подстроки без спецсимволов.
type NewsFilter struct {
	Author string
	Title  string
}

// IsEmpty сообщает, что ни один фильтр не задан.
func (f NewsFilter) IsEmpty() bool {
	return f.Author == "" && f.Title == ""
}
