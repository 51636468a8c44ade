// Package fuzztests houses Go fuzz harnesses for unit loading and
// verification. Its goal is to guard against panics and hangs on arbitrary
// unit documents.
//
// Назначение: загружать байты как YAML-юнит и прогонять их через
// tree.Parse и verify.Verify.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/tree, internal/verify, internal/diag.

package fuzztests
