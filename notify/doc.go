// Package notify delivers lending notifications to members.
//
// A Notifier turns the lending.Notifier calls of the LibraryService into Messages and hands them
// to a Sender. Senders write the message somewhere (a log, a JSON lines stream), the Dispatcher
// decouples the caller from a slow Sender with a bounded queue and worker goroutines:
//
//	dispatcher, _ := notify.NewDispatcher(notify.NewJSONLinesSender(os.Stdout), notify.WithWorkers(2))
//	defer dispatcher.Close()
//
//	service, _ := library.NewLibraryService(books, members, loans,
//		library.WithNotifier(notify.NewNotifier(dispatcher)))
package notify
